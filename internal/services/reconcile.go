package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"haulbook/internal/core"
	"haulbook/internal/ledger"
	"haulbook/internal/log"
	"haulbook/internal/metrics"
	"haulbook/internal/storage"
)

// OwnerDrift is one owner whose stored ledger disagrees with a replay.
type OwnerDrift struct {
	OwnerID   string           `json:"ownerId"`
	OwnerName string           `json:"ownerName"`
	Fields    []string         `json:"fields"`
	Expected  core.OwnerLedger `json:"expected"`
	Repaired  bool             `json:"repaired"`
}

// ledgerWriteAttempts bounds how often a replay re-reads an owner that
// changed under it before giving up.
const ledgerWriteAttempts = 3

// ReconcileService replays trips and payments into owner ledgers.
type ReconcileService struct {
	repo    *storage.Repository
	metrics *metrics.Metrics

	// mu serialises read-replay-write cycles.
	mu sync.Mutex
}

func NewReconcileService(repo *storage.Repository, m *metrics.Metrics) *ReconcileService {
	return &ReconcileService{repo: repo, metrics: m}
}

// exclusive runs fn while no replay is in progress in this process.
func (s *ReconcileService) exclusive(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

// Vehicles recomputes and stores the ledger of every owner holding one of
// the given vehicles. Blank vehicle numbers are ignored.
func (s *ReconcileService) Vehicles(ctx context.Context, vehicles ...string) error {
	return s.sync(ctx, func(owners []core.Owner) []core.Owner {
		return ledger.OwnersOf(owners, vehicles...)
	})
}

// OwnerNamed recomputes the ledgers of owners with one of the given names,
// used after owner payments change.
func (s *ReconcileService) OwnerNamed(ctx context.Context, names ...string) error {
	return s.sync(ctx, func(owners []core.Owner) []core.Owner {
		var out []core.Owner
		for _, o := range owners {
			for _, n := range names {
				if n != "" && o.Name == n {
					out = append(out, o)
					break
				}
			}
		}
		return out
	})
}

func (s *ReconcileService) sync(ctx context.Context, pick func([]core.Owner) []core.Owner) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	owners, err := s.repo.Owners.List(ctx)
	if err != nil {
		return err
	}
	targets := pick(owners)
	if len(targets) == 0 {
		return nil
	}
	trips, err := s.repo.Trips.List(ctx)
	if err != nil {
		return err
	}
	payments, err := s.repo.Payments.List(ctx)
	if err != nil {
		return err
	}
	for _, o := range targets {
		if _, err := s.apply(ctx, o, trips, payments, true); err != nil {
			return err
		}
	}
	return nil
}

// Run replays every owner ledger and reports the ones that drifted. With
// repair set, drifted ledgers are overwritten with the replayed values.
func (s *ReconcileService) Run(ctx context.Context, repair bool) ([]OwnerDrift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := LoadBook(ctx, s.repo)
	if err != nil {
		return nil, err
	}
	var out []OwnerDrift
	for _, o := range b.Owners {
		d, err := s.apply(ctx, o, b.Trips, b.Payments, repair)
		if err != nil {
			return out, err
		}
		if d != nil {
			out = append(out, *d)
		}
	}
	s.metrics.Drift(len(out))
	return out, nil
}

func (s *ReconcileService) apply(ctx context.Context, o core.Owner, trips []core.Trip, payments []core.Payment, write bool) (*OwnerDrift, error) {
	want := ledger.RecomputeOwner(o, trips, payments)
	fields := ledger.Drift(o.OwnerLedger, want)
	if len(fields) == 0 {
		return nil, nil
	}
	d := &OwnerDrift{OwnerID: o.ID, OwnerName: o.Name, Fields: fields, Expected: want}
	if !write {
		return d, nil
	}

	stored, err := s.store(ctx, o, trips, payments)
	if errors.Is(err, core.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return d, fmt.Errorf("store ledger for owner %s: %w", o.Name, err)
	}
	d.Expected = stored.OwnerLedger
	d.Repaired = true
	slog.DebugContext(ctx, "Owner ledger recomputed",
		log.FieldComponent, log.ComponentLedger,
		log.FieldDocumentID, o.ID,
		log.FieldOwner, o.Name,
		"changes", len(fields))
	return d, nil
}

// store writes only the replayed ledger onto the owner. The write is
// conditional on the owner being unchanged since it was read; on a miss the
// owner is re-read and its ledger replayed again, so concurrent edits to
// its other fields survive.
func (s *ReconcileService) store(ctx context.Context, o core.Owner, trips []core.Trip, payments []core.Payment) (core.Owner, error) {
	for attempt := 1; ; attempt++ {
		o.OwnerLedger = ledger.RecomputeOwner(o, trips, payments)
		err := s.repo.Owners.UpdateIfUnchanged(ctx, &o)
		if !errors.Is(err, core.ErrStale) || attempt == ledgerWriteAttempts {
			return o, err
		}
		slog.DebugContext(ctx, "Owner changed during replay, retrying",
			log.FieldComponent, log.ComponentLedger,
			log.FieldDocumentID, o.ID,
			"attempt", attempt)
		if o, err = s.repo.Owners.Get(ctx, o.ID); err != nil {
			return o, err
		}
	}
}
