/*
scheduler.go - Run history retention

PURPOSE:
  Periodically deletes stored calculation runs and simulation reports
  older than the retention window so the run history does not grow
  without bound.

CONFIGURATION:
  - CheckInterval: How often to prune (default: 1 hour)
  - Retention:     How long rows are kept (default: 90 days)
  - Enabled:       Whether the scheduler is active

USAGE:
  scheduler := NewRetentionScheduler(store, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - store/sqlite/sqlite.go: Prune
*/
package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/seojaehong/hr-mvp-app/store/sqlite"
)

// RetentionScheduler prunes old runs on a ticker.
type RetentionScheduler struct {
	Store         *sqlite.Store
	Logger        *slog.Logger
	CheckInterval time.Duration
	Retention     time.Duration
	Enabled       bool

	now    func() time.Time
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewRetentionScheduler creates a new scheduler.
func NewRetentionScheduler(store *sqlite.Store, logger *slog.Logger) *RetentionScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetentionScheduler{
		Store:         store,
		Logger:        logger,
		CheckInterval: time.Hour,
		Retention:     90 * 24 * time.Hour,
		Enabled:       true,
		now:           time.Now,
	}
}

// Start begins the scheduler. Calling Start on a running scheduler is a no-op.
func (rs *RetentionScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled || rs.Retention <= 0 {
		rs.Logger.Info("retention scheduler disabled")
		return
	}
	if rs.ticker != nil {
		return
	}

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.stop = make(chan struct{})
	rs.wg.Add(1)
	go rs.run(rs.ticker, rs.stop)

	rs.Logger.Info("retention scheduler started",
		"interval", rs.CheckInterval.String(),
		"retention", rs.Retention.String())
}

// Stop stops the scheduler and waits for a running prune to finish.
func (rs *RetentionScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker == nil {
		return
	}
	rs.ticker.Stop()
	close(rs.stop)
	rs.wg.Wait()
	rs.ticker = nil
	rs.Logger.Info("retention scheduler stopped")
}

func (rs *RetentionScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer rs.wg.Done()

	// Run immediately on start
	rs.PruneOnce(context.Background())

	for {
		select {
		case <-ticker.C:
			rs.PruneOnce(context.Background())
		case <-stop:
			return
		}
	}
}

// PruneOnce deletes rows older than the retention window.
func (rs *RetentionScheduler) PruneOnce(ctx context.Context) (sqlite.PruneResult, error) {
	cutoff := rs.now().Add(-rs.Retention)
	res, err := rs.Store.Prune(ctx, cutoff)
	if err != nil {
		rs.Logger.Error("retention prune failed", "error", err)
		return res, err
	}
	if res.Runs > 0 || res.Simulations > 0 {
		rs.Logger.Info("retention prune",
			"cutoff", cutoff.UTC().Format(time.RFC3339),
			"runs", res.Runs,
			"simulations", res.Simulations)
	}
	return res, nil
}
