package services

import (
	"context"
	"log/slog"

	"haulbook/internal/amqp"
	"haulbook/internal/core"
	"haulbook/internal/log"
	"haulbook/internal/metrics"
	"haulbook/internal/storage"
)

// PaymentService records settlements. Owner payments feed the owner ledger,
// so they trigger a recompute for the owners named before and after a write.
type PaymentService struct {
	*Resource[core.Payment, *core.Payment]

	reconcile *ReconcileService
	accounts  *AccountsService
	events    EventPublisher
}

func NewPaymentService(repo *storage.Repository, reconcile *ReconcileService, accounts *AccountsService, events EventPublisher, m *metrics.Metrics) *PaymentService {
	return &PaymentService{
		Resource:  NewResource(repo.Payments, WithMetrics[core.Payment](m)),
		reconcile: reconcile,
		accounts:  accounts,
		events:    events,
	}
}

func (s *PaymentService) Create(ctx context.Context, p *core.Payment) error {
	if err := s.Resource.Create(ctx, p); err != nil {
		return err
	}
	s.afterWrite(ctx, amqp.PaymentCreated, *p, ownerName(*p))
	return nil
}

func (s *PaymentService) Update(ctx context.Context, id string, p *core.Payment) error {
	old, err := s.Resource.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Resource.Update(ctx, id, p); err != nil {
		return err
	}
	s.afterWrite(ctx, amqp.PaymentUpdated, *p, ownerName(old), ownerName(*p))
	return nil
}

func (s *PaymentService) Delete(ctx context.Context, id string) (core.Payment, error) {
	p, err := s.Resource.Delete(ctx, id)
	if err != nil {
		return p, err
	}
	s.afterWrite(ctx, amqp.PaymentDeleted, p, ownerName(p))
	return p, nil
}

func ownerName(p core.Payment) string {
	if p.EntityType != core.EntityOwner {
		return ""
	}
	return p.EntityName
}

func (s *PaymentService) afterWrite(ctx context.Context, eventType string, p core.Payment, owners ...string) {
	if err := s.reconcile.OwnerNamed(ctx, owners...); err != nil {
		fields := log.NewFields().
			WithDocument(storage.Payments, p.ID).
			WithPayment(p.EntityType, p.EntityName, p.Amount.String()).
			WithError(err)
		slog.ErrorContext(ctx, "Failed to recompute owner ledgers", fields.ToSlice()...)
	}
	s.accounts.Invalidate(ctx)

	evt := amqp.NewLedgerEvent(eventType, p.ID)
	evt.EntityType = p.EntityType
	evt.EntityName = p.EntityName
	publish(ctx, s.events, evt)
}
