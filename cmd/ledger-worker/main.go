package main

import (
	"context"
	"errors"
	"os"
	"time"

	"haulbook/internal/backend"
	"haulbook/internal/cli"
	"haulbook/internal/log"
	"haulbook/internal/metrics"
	"haulbook/internal/services"
	"haulbook/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)

	logger.Info("Starting ledger-worker")

	if !cfg.AMQPEnabled() {
		logger.Error("Ledger worker needs a broker", log.FieldError, backend.ErrNoBroker)
		os.Exit(1)
	}

	be := cli.OpenBackend(context.Background(), logger, cfg)
	defer be.Close()
	if be.Events == nil {
		logger.Error("AMQP client unavailable, cannot consume ledger events")
		os.Exit(1)
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	register, err := backend.NewFactory(logger.WithComponent(log.ComponentSheets).Logger).CreateRegister(context.Background(), bcfg)
	if err != nil {
		logger.Error("Failed to initialize trip register", log.FieldError, err)
		os.Exit(1)
	}

	// The worker never publishes; its own ledger writes must not echo back.
	m := metrics.New()
	set := services.New(be.Repository, services.Options{Metrics: m, LabourSelfNames: cfg.LabourSelfNames})
	w := worker.NewLedgerWorker(be.Repository.Trips, set.Reconcile, register, m)

	reconciler := services.NewReconciler(set.Reconcile, services.ReconcilerConfig{
		Interval: cfg.ReconcileInterval,
		Repair:   true,
	})

	ctx, done := cli.GracefulShutdown(logger, 15*time.Second, func(ctx context.Context) {
		if err := reconciler.Stop(ctx); err != nil {
			logger.Error("Reconciler shutdown error", log.FieldError, err)
		}
	})

	if cfg.ReconcileInterval > 0 {
		if err := reconciler.Start(ctx); err != nil {
			logger.Error("Failed to start reconciler", log.FieldError, err)
		}
	}

	logger.Info("Performing startup export...")
	if err := w.ExportAll(ctx); err != nil {
		logger.Error("Startup export failed", log.FieldError, err)
	}

	if err := be.Events.ConsumeLedgerEvents(ctx, w.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Ledger event consumption failed", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Ledger worker stopped")
}
