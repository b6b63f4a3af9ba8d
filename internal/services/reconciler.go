package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"haulbook/internal/log"
)

// ReconcilerConfig holds configuration for the periodic reconcile loop
type ReconcilerConfig struct {
	// Interval is how often every owner ledger is replayed (default: 15m)
	Interval time.Duration

	// Repair overwrites drifted ledgers when set (default: true)
	Repair bool
}

// DefaultReconcilerConfig returns sensible defaults
func DefaultReconcilerConfig() ReconcilerConfig {
	return ReconcilerConfig{
		Interval: 15 * time.Minute,
		Repair:   true,
	}
}

type ledgerReplayer interface {
	Run(ctx context.Context, repair bool) ([]OwnerDrift, error)
}

// Reconciler runs a full owner reconcile on a fixed interval.
type Reconciler struct {
	replayer ledgerReplayer
	config   ReconcilerConfig

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewReconciler(replayer ledgerReplayer, config ReconcilerConfig) *Reconciler {
	return &Reconciler{
		replayer: replayer,
		config:   config,
	}
}

// Start begins the reconcile loop. Returns an error if already running.
func (r *Reconciler) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("reconciler is already running")
	}
	if r.config.Interval <= 0 {
		r.mu.Unlock()
		return fmt.Errorf("reconcile interval must be positive, got %s", r.config.Interval)
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	r.mu.Unlock()

	go r.runLoop(ctx)

	slog.InfoContext(ctx, "Reconciler started",
		"interval", r.config.Interval,
		"repair", r.config.Repair)
	return nil
}

// Stop signals the loop and waits for the pass in progress to finish.
func (r *Reconciler) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	stopCh, doneCh := r.stopCh, r.doneCh
	r.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Reconciler stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Reconciler stop timed out")
		return ctx.Err()
	}

	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
	return nil
}

func (r *Reconciler) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Reconciler) runLoop(ctx context.Context) {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	// Reconcile immediately on startup
	r.RunOnce(ctx)

	for {
		select {
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single reconcile pass and logs what it found.
func (r *Reconciler) RunOnce(ctx context.Context) []OwnerDrift {
	start := time.Now()
	drift, err := r.replayer.Run(ctx, r.config.Repair)
	if err != nil {
		slog.ErrorContext(ctx, "Reconcile failed", "error", err)
		return drift
	}
	if len(drift) == 0 {
		slog.DebugContext(ctx, "Owner ledgers in step", "duration", time.Since(start))
		return nil
	}
	for _, d := range drift {
		slog.WarnContext(ctx, "Owner ledger drift",
			log.FieldOperation, log.OpReconcile,
			log.FieldDocumentID, d.OwnerID,
			log.FieldOwner, d.OwnerName,
			"fields", d.Fields,
			"repaired", d.Repaired)
	}
	return drift
}
