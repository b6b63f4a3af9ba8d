package http

import (
	"bytes"
	"net/http"
	"time"

	"haulbook/internal/core"
	"haulbook/internal/ledger"
	"haulbook/internal/log"
	"haulbook/internal/services"
)

func (s *Server) handleCloneTrip(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		writeError(w, r, err, "Trip")
		return
	}
	clone, err := s.svc.Trips.Clone(r.Context(), id)
	if err != nil {
		writeError(w, r, err, "Trip")
		return
	}
	Created(w, clone)
}

// statementHandler serves the trips and totals of one party, broker or owner.
func statementHandler(label string, load func(r *http.Request, id string) (ledger.Statement, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := PathID(r)
		if err != nil {
			writeError(w, r, err, label)
			return
		}
		st, err := load(r, id)
		if err != nil {
			writeError(w, r, err, label)
			return
		}
		OK(w, st)
	}
}

func (s *Server) partyTrips(r *http.Request, id string) (ledger.Statement, error) {
	st, _, err := s.svc.Accounts.PartyStatement(r.Context(), id)
	return st, err
}

func (s *Server) brokerTrips(r *http.Request, id string) (ledger.Statement, error) {
	return s.svc.Accounts.BrokerStatement(r.Context(), id)
}

func (s *Server) ownerTrips(r *http.Request, id string) (ledger.Statement, error) {
	return s.svc.Owners.Trips(r.Context(), id)
}

// handlePartyStatementPage renders the printable statement of account.
func (s *Server) handlePartyStatementPage(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
		InternalServerError().Write(w)
		return
	}
	id, err := PathID(r)
	if err != nil {
		writeError(w, r, err, "Party")
		return
	}
	st, party, err := s.svc.Accounts.PartyStatement(r.Context(), id)
	if err != nil {
		writeError(w, r, err, "Party")
		return
	}

	data := struct {
		Company   string
		Date      string
		Party     core.Party
		Statement ledger.Statement
	}{
		Company:   s.company,
		Date:      s.now().Format("02 Jan 2006"),
		Party:     party,
		Statement: st,
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "statement.html", data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Statement template execution failed",
			log.FieldError, err,
			log.FieldDocumentID, id)
		InternalServerError().Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.svc.Accounts.Summary(r.Context())
	if err != nil {
		writeError(w, r, err, "Summary")
		return
	}
	OK(w, sum)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Accounts.Dashboard(r.Context())
	if err != nil {
		writeError(w, r, err, "Dashboard")
		return
	}
	OK(w, stats)
}

// handleReconcile replays every owner ledger and reports drift. With
// repair=true drifted owners are rewritten.
func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	repair, err := QueryBool(r, "repair", false)
	if err != nil {
		writeError(w, r, err, "Owner")
		return
	}
	drift, err := s.svc.Reconcile.Run(r.Context(), repair)
	if err != nil {
		writeError(w, r, err, "Owner")
		return
	}
	if drift == nil {
		drift = []services.OwnerDrift{}
	}
	OK(w, struct {
		CheckedAt time.Time             `json:"checkedAt"`
		Repair    bool                  `json:"repair"`
		Drift     []services.OwnerDrift `json:"drift"`
	}{s.now().UTC(), repair, drift})
}
