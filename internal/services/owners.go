package services

import (
	"context"
	"fmt"

	"haulbook/internal/amqp"
	"haulbook/internal/core"
	"haulbook/internal/ledger"
	"haulbook/internal/metrics"
	"haulbook/internal/storage"
)

// OwnerService stores owners with a ledger replayed from the book. Ledger
// fields sent by clients are discarded. Writes hold the replay lock so an
// in-process replay never interleaves with them.
type OwnerService struct {
	*Resource[core.Owner, *core.Owner]

	repo      *storage.Repository
	reconcile *ReconcileService
	accounts  *AccountsService
	events    EventPublisher
}

func NewOwnerService(repo *storage.Repository, reconcile *ReconcileService, accounts *AccountsService, events EventPublisher, m *metrics.Metrics) *OwnerService {
	return &OwnerService{
		Resource:  NewResource(repo.Owners, WithMetrics[core.Owner](m)),
		repo:      repo,
		reconcile: reconcile,
		accounts:  accounts,
		events:    events,
	}
}

func (s *OwnerService) Create(ctx context.Context, o *core.Owner) error {
	err := s.reconcile.exclusive(func() error {
		if err := s.withLedger(ctx, o); err != nil {
			return err
		}
		return s.Resource.Create(ctx, o)
	})
	if err != nil {
		return err
	}
	s.afterWrite(ctx, *o)
	return nil
}

func (s *OwnerService) Update(ctx context.Context, id string, o *core.Owner) error {
	err := s.reconcile.exclusive(func() error {
		if _, err := s.Resource.Get(ctx, id); err != nil {
			return err
		}
		if err := s.withLedger(ctx, o); err != nil {
			return err
		}
		return s.Resource.Update(ctx, id, o)
	})
	if err != nil {
		return err
	}
	s.afterWrite(ctx, *o)
	return nil
}

func (s *OwnerService) Delete(ctx context.Context, id string) (core.Owner, error) {
	var o core.Owner
	err := s.reconcile.exclusive(func() error {
		var err error
		o, err = s.Resource.Delete(ctx, id)
		return err
	})
	if err != nil {
		return o, err
	}
	s.afterWrite(ctx, o)
	return o, nil
}

// Trips returns the trips run by the owner's trucks with their totals.
func (s *OwnerService) Trips(ctx context.Context, id string) (ledger.Statement, error) {
	return s.accounts.OwnerStatement(ctx, id)
}

func (s *OwnerService) withLedger(ctx context.Context, o *core.Owner) error {
	// Normalize first so blank truck rows never match a trip.
	o.Normalize()
	trips, err := s.repo.Trips.List(ctx)
	if err != nil {
		return fmt.Errorf("load trips: %w", err)
	}
	payments, err := s.repo.Payments.List(ctx)
	if err != nil {
		return fmt.Errorf("load payments: %w", err)
	}
	o.OwnerLedger = ledger.RecomputeOwner(*o, trips, payments)
	return nil
}

func (s *OwnerService) afterWrite(ctx context.Context, o core.Owner) {
	s.accounts.Invalidate(ctx)
	evt := amqp.NewLedgerEvent(amqp.OwnerChanged, o.ID)
	evt.EntityType = core.EntityOwner
	evt.EntityName = o.Name
	for _, t := range o.Trucks {
		evt.Vehicles = append(evt.Vehicles, t.VehicleNumber)
	}
	publish(ctx, s.events, evt)
}
