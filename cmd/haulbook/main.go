package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"haulbook/internal/cache"
	"haulbook/internal/cli"
	"haulbook/internal/extract"
	apphttp "haulbook/internal/http"
	"haulbook/internal/log"
	"haulbook/internal/metrics"
	"haulbook/internal/middleware/cors"
	"haulbook/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	ctx := context.Background()
	m := metrics.New()

	be := cli.OpenBackend(ctx, logger, cfg)
	set := services.New(be.Repository, services.Options{
		Events:          be.Publisher(),
		Metrics:         m,
		CacheTTL:        cfg.CacheTTL,
		LabourSelfNames: cfg.LabourSelfNames,
	})

	cacheManager := cache.NewManager()
	cacheManager.Register(set.Accounts.Cache())
	cacheManager.StartCleanup(time.Minute)

	var extractor apphttp.TripExtractor
	if cfg.ExtractionEnabled() {
		ex, err := extract.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, m)
		if err != nil {
			logger.Error("Failed to initialize ledger image extraction", log.FieldError, err)
			os.Exit(1)
		}
		extractor = ex
		logger.Info("Ledger image extraction enabled", "model", cfg.GeminiModel)
	} else {
		logger.Info("GEMINI_API_KEY not set, ledger image extraction disabled")
	}

	checks := map[string]apphttp.Check{"store": be.Repository.Store.Ping}

	reconciler := services.NewReconciler(set.Reconcile, services.ReconcilerConfig{
		Interval: cfg.ReconcileInterval,
		Repair:   true,
	})

	srv := apphttp.NewServer(apphttp.Options{
		Addr:            ":" + cfg.Port,
		Services:        set,
		Extractor:       extractor,
		Metrics:         m,
		Logger:          logger.WithComponent(log.ComponentHTTP),
		Checks:          checks,
		CORSOrigins:     cors.ParseOrigins(cfg.CORSAllowedOrigin),
		RateLimitPerMin: cfg.RateLimitPerMin,
	})

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := reconciler.Stop(ctx); err != nil {
			logger.Error("Reconciler shutdown error", log.FieldError, err)
		}
		cacheManager.Stop()
		if err := be.Close(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	// With a broker configured the ledger worker owns the periodic reconcile.
	if cfg.ReconcileInterval > 0 && be.Events == nil {
		if err := reconciler.Start(shutdownCtx); err != nil {
			logger.Error("Failed to start reconciler", log.FieldError, err)
		}
	}

	logger.Info("Starting haulbook server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"amqp_enabled", be.Events != nil,
		"extraction_enabled", extractor != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
