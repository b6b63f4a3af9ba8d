package services

import (
	"context"
	"log/slog"

	"haulbook/internal/amqp"
	"haulbook/internal/log"
)

// EventPublisher announces ledger-affecting writes. *amqp.Client satisfies it.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, evt *amqp.LedgerEvent) error
}

var _ EventPublisher = (*amqp.Client)(nil)

// publish sends evt when a publisher is configured. The write it describes is
// already committed, so failures are logged and dropped.
func publish(ctx context.Context, p EventPublisher, evt *amqp.LedgerEvent) {
	if p == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping ledger event", "type", evt.Type)
		return
	}
	if err := p.PublishLedgerEvent(ctx, evt); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			log.FieldOperation, log.OpPublish,
			log.FieldEventType, evt.Type,
			log.FieldDocumentID, evt.EntityID,
			log.FieldError, err)
	}
}
