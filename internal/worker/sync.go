package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/murder-mystery/internal/config"
)

// Reconciler rebuilds derived realtime state from the source of truth
type Reconciler interface {
	RebuildStandings(ctx context.Context) error
	RefreshRound(ctx context.Context) error
}

// SyncWorker periodically rewrites the redis standings and round cache from
// the store, repairing drift left by failed cache writes
type SyncWorker struct {
	reconciler Reconciler
	config     *config.SyncConfig
	logger     *slog.Logger
	stopCh     chan struct{}
	doneCh     chan struct{}
	mu         sync.Mutex
	running    bool
}

// NewSyncWorker creates a new sync worker
func NewSyncWorker(reconciler Reconciler, cfg *config.SyncConfig, logger *slog.Logger) *SyncWorker {
	return &SyncWorker{
		reconciler: reconciler,
		config:     cfg,
		logger:     logger,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Start runs one cycle immediately and then one per interval
func (w *SyncWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("sync worker started", "interval", w.config.Interval)

	go w.run(ctx)
	return nil
}

// Stop stops the background sync process
func (w *SyncWorker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("sync worker stopped")
	return nil
}

func (w *SyncWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	w.syncAll(ctx)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.syncAll(ctx)
		}
	}
}

func (w *SyncWorker) syncAll(ctx context.Context) {
	w.logger.Debug("starting sync cycle")
	startTime := time.Now()
	errorCount := 0

	if err := w.reconciler.RefreshRound(ctx); err != nil {
		w.logger.Error("failed to refresh round cache", "error", err)
		errorCount++
	}
	if err := w.reconciler.RebuildStandings(ctx); err != nil {
		w.logger.Error("failed to rebuild standings", "error", err)
		errorCount++
	}

	w.logger.Info("sync cycle completed",
		"duration", time.Since(startTime),
		"errors", errorCount,
	)
}

// IsRunning returns whether the worker is currently running
func (w *SyncWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// RunOnce runs a single sync cycle
func (w *SyncWorker) RunOnce(ctx context.Context) {
	w.syncAll(ctx)
}
