// Package worker consumes ledger events: it keeps owner ledgers replayed and
// mirrors trips into the trip register.
package worker

import (
	"context"
	"errors"
	"fmt"

	"haulbook/internal/amqp"
	"haulbook/internal/core"
	"haulbook/internal/log"
	"haulbook/internal/metrics"
	"haulbook/internal/sheets"
)

// OwnerReconciler recomputes stored owner ledgers.
// *services.ReconcileService satisfies it.
type OwnerReconciler interface {
	Vehicles(ctx context.Context, vehicles ...string) error
	OwnerNamed(ctx context.Context, names ...string) error
}

// TripSource reads trips from the book.
type TripSource interface {
	Get(ctx context.Context, id string) (core.Trip, error)
	List(ctx context.Context) ([]core.Trip, error)
}

// LedgerWorker handles ledger events delivered over AMQP.
type LedgerWorker struct {
	trips     TripSource
	reconcile OwnerReconciler
	register  sheets.TripRegister
	metrics   *metrics.Metrics
	logger    *log.Logger
}

func NewLedgerWorker(trips TripSource, reconcile OwnerReconciler, register sheets.TripRegister, m *metrics.Metrics) *LedgerWorker {
	return &LedgerWorker{
		trips:     trips,
		reconcile: reconcile,
		register:  register,
		metrics:   m,
		logger:    log.FromContext(context.Background()).WithComponent(log.ComponentWorker),
	}
}

// HandleEvent is an amqp.Handler. A returned error requeues the delivery.
func (w *LedgerWorker) HandleEvent(ctx context.Context, evt *amqp.LedgerEvent) error {
	w.logger.DebugContext(ctx, "Processing ledger event",
		log.FieldEventType, evt.Type,
		log.FieldDocumentID, evt.EntityID)

	var err error
	switch evt.Type {
	case amqp.TripCreated, amqp.TripUpdated:
		err = w.tripWritten(ctx, evt)
	case amqp.TripDeleted:
		err = w.tripDeleted(ctx, evt)
	case amqp.PaymentCreated, amqp.PaymentUpdated, amqp.PaymentDeleted:
		err = w.paymentChanged(ctx, evt)
	case amqp.OwnerChanged:
		// The owner service replays its own ledger on write.
	default:
		err = fmt.Errorf("unhandled ledger event type %q", evt.Type)
	}

	if err != nil {
		w.metrics.Event(evt.Type, "error")
		return err
	}
	w.metrics.Event(evt.Type, "ok")
	return nil
}

func (w *LedgerWorker) tripWritten(ctx context.Context, evt *amqp.LedgerEvent) error {
	if err := w.reconcile.Vehicles(ctx, evt.Vehicles...); err != nil {
		return fmt.Errorf("recompute owner ledgers: %w", err)
	}

	trip, err := w.trips.Get(ctx, evt.EntityID)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted before we got here; the delete event removes the row.
		w.logger.InfoContext(ctx, "Trip no longer exists, skipping register update",
			log.FieldDocumentID, evt.EntityID,
			log.FieldSerialNumber, evt.SerialNumber)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get trip %s: %w", evt.EntityID, err)
	}

	ref, err := w.register.UpsertTrip(ctx, trip)
	if err != nil {
		return fmt.Errorf("write trip %d to register: %w", trip.SerialNumber, err)
	}
	w.logger.InfoContext(ctx, "Trip written to register",
		log.FieldSerialNumber, trip.SerialNumber,
		log.FieldVehicle, trip.VehicleNumber,
		"row_ref", ref)
	return nil
}

func (w *LedgerWorker) tripDeleted(ctx context.Context, evt *amqp.LedgerEvent) error {
	if err := w.reconcile.Vehicles(ctx, evt.Vehicles...); err != nil {
		return fmt.Errorf("recompute owner ledgers: %w", err)
	}
	if evt.SerialNumber <= 0 {
		w.logger.WarnContext(ctx, "Trip delete event without serial number",
			log.FieldDocumentID, evt.EntityID)
		return nil
	}
	if err := w.register.RemoveTrip(ctx, evt.SerialNumber); err != nil {
		return fmt.Errorf("remove trip %d from register: %w", evt.SerialNumber, err)
	}
	w.logger.InfoContext(ctx, "Trip removed from register", log.FieldSerialNumber, evt.SerialNumber)
	return nil
}

func (w *LedgerWorker) paymentChanged(ctx context.Context, evt *amqp.LedgerEvent) error {
	if evt.EntityType != core.EntityOwner || evt.EntityName == "" {
		return nil
	}
	if err := w.reconcile.OwnerNamed(ctx, evt.EntityName); err != nil {
		return fmt.Errorf("recompute ledger for owner %s: %w", evt.EntityName, err)
	}
	return nil
}

// ExportAll writes every trip to the register. Run at start-up to recover
// from events lost while the worker was down.
func (w *LedgerWorker) ExportAll(ctx context.Context) error {
	trips, err := w.trips.List(ctx)
	if err != nil {
		return fmt.Errorf("list trips for export: %w", err)
	}
	if len(trips) == 0 {
		w.logger.InfoContext(ctx, "No trips to export on startup")
		return nil
	}

	synced, failed := 0, 0
	for _, t := range trips {
		if _, err := w.register.UpsertTrip(ctx, t); err != nil {
			w.logger.ErrorContext(ctx, "Failed to export trip",
				log.FieldSerialNumber, t.SerialNumber,
				log.FieldError, err)
			failed++
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}
		synced++
	}

	w.logger.InfoContext(ctx, "Startup export completed",
		log.FieldOperation, log.OpExport,
		"total", len(trips),
		"synced", synced,
		"errors", failed)
	return nil
}
