package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/pagecheck/internal/domain"
	"github.com/hamed0406/pagecheck/internal/repo"
)

// Batch runs a set of targets and returns one report per target.
type Batch interface {
	Run(ctx context.Context, targets []domain.CheckTarget) []domain.RunReport
}

// Watcher re-runs the targets on a fixed interval and stores every report.
type Watcher struct {
	Logger   *zap.Logger
	Runner   Batch
	Reports  repo.ReportStore
	Targets  []domain.CheckTarget
	Interval time.Duration
}

func NewWatcher(logger *zap.Logger, runner Batch, reports repo.ReportStore, targets []domain.CheckTarget, interval time.Duration) *Watcher {
	if interval < 0 {
		interval = 0
	}
	return &Watcher{
		Logger:   logger,
		Runner:   runner,
		Reports:  reports,
		Targets:  targets,
		Interval: interval,
	}
}

// Run does an immediate pass, then one per tick, until ctx is cancelled.
// A zero interval disables the loop.
func (w *Watcher) Run(ctx context.Context) {
	if w.Interval == 0 {
		w.Logger.Info("watcher_disabled")
		return
	}
	t := time.NewTicker(w.Interval)
	defer t.Stop()

	w.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			w.Logger.Info("watcher_stopped")
			return
		case <-t.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce runs every target once and stores the reports.
func (w *Watcher) RunOnce(ctx context.Context) []domain.RunReport {
	reports := w.Runner.Run(ctx, w.Targets)
	for _, r := range reports {
		if err := w.Reports.Append(ctx, r); err != nil {
			w.Logger.Warn("watcher_append_error",
				zap.String("run_id", r.ID),
				zap.String("url", r.Target.URL),
				zap.Error(err),
			)
		}
	}
	return reports
}
