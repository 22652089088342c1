package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Sweeper removes expired entries and reports how many it removed.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// Config holds worker configuration
type Config struct {
	// WorkerID uniquely identifies this worker instance
	WorkerID string

	// Interval is how often to sweep
	Interval time.Duration
}

// Worker periodically sweeps expired checkout flows.
type Worker struct {
	config  Config
	sweeper Sweeper
	logger  *slog.Logger
}

// NewWorker creates a new background sweeper
func NewWorker(sweeper Sweeper, config Config, logger *slog.Logger) *Worker {
	if config.WorkerID == "" {
		config.WorkerID = fmt.Sprintf("sweeper-%s", uuid.New().String()[:8])
	}
	if config.Interval <= 0 {
		config.Interval = time.Minute
	}

	return &Worker{
		config:  config,
		sweeper: sweeper,
		logger:  logger,
	}
}

// Start sweeps on every tick until the context is cancelled
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("worker starting",
		"worker_id", w.config.WorkerID,
		"interval", w.config.Interval,
	)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker shutting down", "worker_id", w.config.WorkerID)
			return ctx.Err()

		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *Worker) sweep(ctx context.Context) {
	start := time.Now()
	removed, err := w.sweeper.Sweep(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error("sweep failed", "worker_id", w.config.WorkerID, "error", err)
		}
		return
	}
	if removed > 0 {
		w.logger.Info("expired flows removed",
			"worker_id", w.config.WorkerID,
			"removed", removed,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
