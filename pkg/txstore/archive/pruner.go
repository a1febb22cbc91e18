package archive

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Pruner deletes archive rows older than the retention period on a cron
// schedule.
type Pruner struct {
	store    *SQLiteStore
	schedule string
	maxAge   time.Duration
	cron     *cron.Cron
	mu       sync.Mutex
	running  bool
	logger   *slog.Logger

	onPruned func(rows int64)
}

// NewPruner creates a retention pruner. Schedule is a standard cron
// expression (e.g. "0 3 * * *" for daily at 3 AM); maxAge is the retention
// period measured against each transaction's start time.
func NewPruner(store *SQLiteStore, schedule string, maxAge time.Duration) *Pruner {
	return &Pruner{
		store:    store,
		schedule: schedule,
		maxAge:   maxAge,
		cron:     cron.New(),
		logger:   slog.Default().With("component", "archive.retention"),
	}
}

// OnPruned registers a hook invoked with the row count of each pruning run
// that deleted anything. Must be set before Start.
func (p *Pruner) OnPruned(fn func(rows int64)) {
	p.onPruned = fn
}

// Start begins scheduled pruning. If the schedule is empty, Start does
// nothing. The pruner stops when ctx is cancelled or Stop is called.
func (p *Pruner) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.schedule == "" {
		p.logger.Info("prune schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(p.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", p.schedule, err)
	}

	_, err := p.cron.AddFunc(p.schedule, func() {
		p.runPruning(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule pruning: %w", err)
	}

	p.cron.Start()
	p.running = true

	p.logger.Info("retention scheduler started",
		"schedule", p.schedule,
		"max_age", p.maxAge,
	)

	go func() {
		<-ctx.Done()
		p.Stop()
	}()

	return nil
}

// Prune deletes rows older than the retention period. Returns the number of
// rows deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	if p.maxAge <= 0 {
		return 0, nil
	}

	cutoff := time.Now().Add(-p.maxAge)

	deleted, err := p.store.PruneOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if deleted > 0 && p.onPruned != nil {
		p.onPruned(deleted)
	}

	return deleted, nil
}

// runPruning executes one pruning cycle.
func (p *Pruner) runPruning(ctx context.Context) {
	p.logger.Info("starting scheduled archive pruning")

	deleted, err := p.Prune(ctx)
	if err != nil {
		p.logger.Error("scheduled pruning failed",
			"error", err,
		)
		return
	}

	if deleted > 0 {
		p.logger.Info("scheduled pruning completed",
			"deleted_count", deleted,
			"max_age", p.maxAge,
		)
	} else {
		p.logger.Debug("scheduled pruning completed, no rows deleted")
	}
}

// Stop stops the scheduler and waits for any running job to complete.
func (p *Pruner) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cron != nil && p.running {
		ctx := p.cron.Stop()
		<-ctx.Done()
		p.running = false
		p.logger.Info("retention scheduler stopped")
	}
}

// IsRunning returns true if the scheduler is running.
func (p *Pruner) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.running
}
