// Package http serves the bookkeeping REST API.
package http

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"haulbook/internal/core"
	"haulbook/internal/log"
	"haulbook/internal/metrics"
	"haulbook/internal/middleware/cors"
	"haulbook/internal/middleware/ratelimit"
	"haulbook/internal/middleware/security"
	"haulbook/internal/middleware/trace"
	"haulbook/internal/services"
	appweb "haulbook/web"
)

// DefaultCompany heads printed statements.
const DefaultCompany = "Hamza & Shahid Co"

// Options configures NewServer. Services is required.
type Options struct {
	Addr            string
	Services        *services.Set
	Extractor       TripExtractor
	Metrics         *metrics.Metrics
	Logger          *log.Logger
	Checks          map[string]Check
	CORSOrigins     []string
	RateLimitPerMin int
	Company         string
}

type Server struct {
	http.Server

	svc       *services.Set
	extractor TripExtractor
	metrics   *metrics.Metrics
	templates *template.Template
	checks    map[string]Check
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	company   string
	started   time.Time
	now       func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server.
func NewServer(opts Options) *Server {
	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       60 * time.Second,
			WriteTimeout:      120 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		svc:       opts.Services,
		extractor: opts.Extractor,
		metrics:   opts.Metrics,
		checks:    opts.Checks,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMin}),
		detector:  security.NewDetector(),
		company:   opts.Company,
		started:   time.Now(),
		now:       time.Now,
	}
	if s.company == "" {
		s.company = DefaultCompany
	}

	t, err := template.New("").Funcs(template.FuncMap{
		"rupees": core.FormatRupees,
	}).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	} else {
		s.templates = t
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	s.Handler = s.chain(s.routes(), logger.WithComponent(log.ComponentHTTP), opts.CORSOrigins)
	return s
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mountCRUD[core.Trip](mux, "/api/trips", "Trip", s.svc.Trips)
	mountCRUD[core.Party](mux, "/api/parties", "Party", s.svc.Parties)
	mountCRUD[core.Broker](mux, "/api/brokers", "Broker", s.svc.Brokers)
	mountCRUD[core.Payment](mux, "/api/payments", "Payment", s.svc.Payments)
	mountCRUD[core.Owner](mux, "/api/owners", "Owner", s.svc.Owners)
	mountCRUD[core.Labour](mux, "/api/labours", "Labour", s.svc.Labours)
	mountCRUD[core.ProductReceive](mux, "/api/productReceives", "Product receive", s.svc.ProductReceives)

	mux.HandleFunc("POST /api/trips/{id}/clone", s.handleCloneTrip)
	mux.HandleFunc("GET /api/parties/{id}/trips", statementHandler("Party", s.partyTrips))
	mux.HandleFunc("GET /api/brokers/{id}/trips", statementHandler("Broker", s.brokerTrips))
	mux.HandleFunc("GET /api/owners/{id}/trips", statementHandler("Owner", s.ownerTrips))
	mux.HandleFunc("GET /api/parties/{id}/statement", s.handlePartyStatementPage)

	mux.HandleFunc("GET /api/accounts/summary", s.handleSummary)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("POST /api/reconcile", s.handleReconcile)
	mux.HandleFunc("POST /api/ocr/trips", s.handleExtractTrips)

	mux.HandleFunc("GET /api/health", s.handleAPIHealth)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("Route not found").Write(w)
	})
	return mux
}

// chain wraps the mux, outermost first: trace, request logger, CORS,
// security headers, probe detection, write rate limit, request metrics.
func (s *Server) chain(mux *http.ServeMux, logger *log.Logger, origins []string) http.Handler {
	var h http.Handler = s.metrics.Middleware(mux)
	h = s.limiter.Middleware(s.detector.ExtractClientIP, ratelimit.Mutating, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, s.detector.ExtractClientIP(r),
			"rejected_total", s.limiter.Rejected())
		ErrorResponse(http.StatusTooManyRequests, CodeRateLimit,
			"Rate limit exceeded. Please try again later.").Write(w)
	})(h)
	h = s.detector.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = cors.New(cors.Config{AllowedOrigins: origins}).Handler(h)
	h = log.Middleware(logger, trace.RequestID)(h)
	h = trace.NewMiddleware(s.detector.ExtractClientIP).Middleware(h)
	return h
}

// Shutdown stops background work and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
