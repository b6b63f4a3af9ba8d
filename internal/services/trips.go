package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"haulbook/internal/amqp"
	"haulbook/internal/core"
	"haulbook/internal/ledger"
	"haulbook/internal/log"
	"haulbook/internal/metrics"
	"haulbook/internal/storage"
)

// TripService owns trip writes: serial allocation, owner ledger upkeep,
// snapshot invalidation and ledger events.
type TripService struct {
	repo      *storage.Repository
	reconcile *ReconcileService
	accounts  *AccountsService
	events    EventPublisher
	metrics   *metrics.Metrics
	today     func() string
	serialMu  sync.Mutex
}

func NewTripService(repo *storage.Repository, reconcile *ReconcileService, accounts *AccountsService, events EventPublisher, m *metrics.Metrics) *TripService {
	return &TripService{
		repo:      repo,
		reconcile: reconcile,
		accounts:  accounts,
		events:    events,
		metrics:   m,
		today:     core.Today,
	}
}

// List returns every trip, newest first.
func (s *TripService) List(ctx context.Context) ([]core.Trip, error) {
	return s.repo.Trips.List(ctx)
}

func (s *TripService) Get(ctx context.Context, id string) (core.Trip, error) {
	return s.repo.Trips.Get(ctx, id)
}

// Create stores t under the next free serial number. Any client supplied
// serial number is ignored.
func (s *TripService) Create(ctx context.Context, t *core.Trip) error {
	t.Normalize()
	t.SerialNumber = 0
	if err := t.Validate(); err != nil {
		return err
	}

	s.serialMu.Lock()
	last, err := s.repo.MaxSerialNumber(ctx)
	if err != nil {
		s.serialMu.Unlock()
		return err
	}
	t.SerialNumber = ledger.NextSerial(last)
	err = s.repo.Trips.Create(ctx, t)
	s.serialMu.Unlock()
	if err != nil {
		return err
	}

	s.afterWrite(ctx, log.OpCreate, amqp.TripCreated, *t, t.VehicleNumber)
	return nil
}

// Update replaces the trip. The serial number is immutable.
func (s *TripService) Update(ctx context.Context, id string, t *core.Trip) error {
	old, err := s.repo.Trips.Get(ctx, id)
	if err != nil {
		return err
	}
	t.Normalize()
	t.SerialNumber = old.SerialNumber
	if err := t.Validate(); err != nil {
		return err
	}
	if err := s.repo.Trips.Update(ctx, id, t); err != nil {
		return err
	}

	s.afterWrite(ctx, log.OpUpdate, amqp.TripUpdated, *t, old.VehicleNumber, t.VehicleNumber)
	return nil
}

// Clone stores a copy of the trip dated today under a new serial number.
func (s *TripService) Clone(ctx context.Context, id string) (core.Trip, error) {
	src, err := s.repo.Trips.Get(ctx, id)
	if err != nil {
		return core.Trip{}, err
	}
	c := ledger.CloneTrip(src, s.today())
	if err := s.Create(ctx, &c); err != nil {
		return core.Trip{}, fmt.Errorf("clone trip %d: %w", src.SerialNumber, err)
	}
	return c, nil
}

// Delete removes the trip and returns what was stored.
func (s *TripService) Delete(ctx context.Context, id string) (core.Trip, error) {
	t, err := s.repo.Trips.Get(ctx, id)
	if err != nil {
		return t, err
	}
	if err := s.repo.Trips.Delete(ctx, id); err != nil {
		return t, err
	}

	s.afterWrite(ctx, log.OpDelete, amqp.TripDeleted, t, t.VehicleNumber)
	return t, nil
}

// afterWrite keeps derived state in step with a committed trip write. The
// trip is already stored, so failures here are logged; the periodic
// reconcile repairs any owner ledger left behind.
func (s *TripService) afterWrite(ctx context.Context, op, eventType string, t core.Trip, vehicles ...string) {
	s.metrics.Write(storage.Trips, op)
	if err := s.reconcile.Vehicles(ctx, vehicles...); err != nil {
		fields := log.NewFields().WithComponent(log.ComponentTrips).WithOperation(op).WithTrip(t.ID, t.SerialNumber, t.VehicleNumber).WithError(err)
		slog.ErrorContext(ctx, "Failed to recompute owner ledgers", fields.ToSlice()...)
	}
	s.accounts.Invalidate(ctx)

	evt := amqp.NewLedgerEvent(eventType, t.ID)
	evt.SerialNumber = t.SerialNumber
	evt.Vehicles = uniqueVehicles(vehicles)
	publish(ctx, s.events, evt)
}

func uniqueVehicles(vehicles []string) []string {
	seen := make(map[string]bool, len(vehicles))
	out := make([]string, 0, len(vehicles))
	for _, v := range vehicles {
		k := core.VehicleKey(v)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	return out
}
