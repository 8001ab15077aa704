package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// SnapshotPruner deletes step snapshots last touched before cutoff.
type SnapshotPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Retention чистит снапшоты шагов старше заданного срока по расписанию cron.
type Retention struct {
	pruner SnapshotPruner
	keep   time.Duration
	now    func() time.Time
	cron   *cron.Cron
	log    *slog.Logger
}

func NewRetention(pruner SnapshotPruner, keep time.Duration) *Retention {
	if keep <= 0 {
		keep = 14 * 24 * time.Hour
	}
	return &Retention{
		pruner: pruner,
		keep:   keep,
		now:    time.Now,
		cron:   cron.New(),
		log:    slog.With("component", "snapshot_retention"),
	}
}

// RunOnce deletes everything older than the retention window.
func (r *Retention) RunOnce(ctx context.Context) (int64, error) {
	start := time.Now()
	cutoff := r.now().UTC().Add(-r.keep)
	n, err := r.pruner.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		r.log.ErrorContext(ctx, "snapshot cleanup failed", "error", err)
		return 0, err
	}
	r.log.InfoContext(ctx, "snapshot cleanup done",
		"deleted", n,
		"cutoff", cutoff.Format(time.RFC3339),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return n, nil
}

// Start schedules RunOnce with a standard 5-field cron spec.
func (r *Retention) Start(spec string) error {
	if _, err := r.cron.AddFunc(spec, func() {
		_, _ = r.RunOnce(context.Background())
	}); err != nil {
		return fmt.Errorf("schedule snapshot retention %q: %w", spec, err)
	}
	r.cron.Start()
	return nil
}

// Stop waits for a running cleanup to finish or ctx to expire.
func (r *Retention) Stop(ctx context.Context) {
	select {
	case <-r.cron.Stop().Done():
	case <-ctx.Done():
	}
}
