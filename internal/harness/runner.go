// Package harness runs page verification targets concurrently.
package harness

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hamed0406/pagecheck/internal/check"
	"github.com/hamed0406/pagecheck/internal/domain"
	"github.com/hamed0406/pagecheck/internal/probe"
)

// Sink receives each report as soon as its run finishes.
type Sink interface {
	Print(r domain.RunReport) error
}

type Recorder interface {
	RecordRun(r domain.RunReport)
}

// MinConcurrency is the lowest run limit a Runner accepts.
const MinConcurrency = 2

type Runner struct {
	Logger      *zap.Logger
	Fetcher     probe.Fetcher
	Sink        Sink                // optional
	Metrics     Recorder            // optional
	DNS         *probe.DNSDiagnoser // optional; consulted on connection errors
	Timeout     time.Duration
	Concurrency int
}

func NewRunner(logger *zap.Logger, f probe.Fetcher, sink Sink, timeout time.Duration, concurrency int) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	// the home page and the workspace must always start together
	if concurrency < MinConcurrency {
		concurrency = MinConcurrency
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Runner{
		Logger:      logger,
		Fetcher:     f,
		Sink:        sink,
		Timeout:     timeout,
		Concurrency: concurrency,
	}
}

// Run starts one run per target without waiting on the others and returns
// every report, indexed like targets, once all runs are done. Reports reach
// the Sink in completion order.
func (r *Runner) Run(ctx context.Context, targets []domain.CheckTarget) []domain.RunReport {
	reports := make([]domain.RunReport, len(targets))

	var g errgroup.Group
	g.SetLimit(max(r.Concurrency, MinConcurrency))
	for i, tgt := range targets {
		g.Go(func() error {
			reports[i] = r.RunOne(ctx, tgt)
			return nil
		})
	}
	_ = g.Wait()
	return reports
}

// RunOne fetches, evaluates and emits a single report. It never fails: a
// connection error becomes part of the report.
func (r *Runner) RunOne(ctx context.Context, tgt domain.CheckTarget) domain.RunReport {
	rep := domain.RunReport{
		ID:        uuid.NewString(),
		Target:    tgt,
		StartedAt: time.Now().UTC(),
	}

	cctx, cancel := context.WithTimeout(ctx, r.Timeout)
	res, err := r.Fetcher.Fetch(cctx, tgt.URL)
	cancel()

	if err != nil {
		var ce *domain.ConnectionError
		if !errors.As(err, &ce) {
			ce = &domain.ConnectionError{URL: tgt.URL, Err: err}
		}
		rep.Err = ce
		r.diagnose(ctx, rep)
	} else {
		rep.Result = &res
	}
	check.Evaluate(&rep)
	rep.Duration = time.Since(rep.StartedAt)

	r.emit(rep)
	return rep
}

func (r *Runner) diagnose(ctx context.Context, rep domain.RunReport) {
	if r.DNS == nil {
		return
	}
	dns := r.DNS.Diagnose(ctx, rep.Target.URL)
	r.Logger.Info("dns_check",
		zap.String("run_id", rep.ID),
		zap.String("host", dns.Host),
		zap.String("class", dns.Class),
		zap.Strings("nameservers", dns.Nameservers),
		zap.String("cname", dns.CNAME),
		zap.String("resolver_error", dns.ResolverError),
	)
}

func (r *Runner) emit(rep domain.RunReport) {
	fields := []zap.Field{
		zap.String("run_id", rep.ID),
		zap.String("url", rep.Target.URL),
		zap.String("verdict", string(rep.Verdict)),
		zap.Duration("duration", rep.Duration),
	}
	if rep.Failed() {
		r.Logger.Warn("run_connection_error", append(fields, zap.Error(rep.Err))...)
	} else {
		missing := 0
		for _, c := range rep.Checks {
			if !c.Found {
				missing++
			}
		}
		fields = append(fields,
			zap.Int("status", rep.Result.StatusCode),
			zap.String("title", rep.Result.Title),
			zap.Int("fragments_missing", missing),
		)
		if rep.MissingModule.Present {
			fields = append(fields, zap.String("missing_module", rep.MissingModule.Path))
		}
		r.Logger.Info("run_finished", fields...)
	}

	if r.Metrics != nil {
		r.Metrics.RecordRun(rep)
	}
	if r.Sink != nil {
		if err := r.Sink.Print(rep); err != nil {
			r.Logger.Warn("report_print_error", zap.String("run_id", rep.ID), zap.Error(err))
		}
	}
}

// AllWorking reports whether every run was classified working.
func AllWorking(reports []domain.RunReport) bool {
	for _, rep := range reports {
		if rep.Verdict != domain.VerdictWorking {
			return false
		}
	}
	return true
}
