// Package cli holds the cobra commands behind the pagecheck binary.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hamed0406/pagecheck/internal/config"
	"github.com/hamed0406/pagecheck/internal/domain"
	"github.com/hamed0406/pagecheck/internal/harness"
	"github.com/hamed0406/pagecheck/internal/logging"
	"github.com/hamed0406/pagecheck/internal/metrics"
	"github.com/hamed0406/pagecheck/internal/notify"
	"github.com/hamed0406/pagecheck/internal/probe"
	"github.com/hamed0406/pagecheck/internal/report"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// ErrNeedsDebugging is returned when at least one page failed verification.
// The binary maps it to exit code 1 without printing anything extra.
var ErrNeedsDebugging = errors.New("one or more pages need debugging")

func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pagecheck",
		Short: "Smoke-check that the local dev UI renders",
		Long: `pagecheck fetches the home page and the workspace of the local dev server
(http://localhost:3000 by default), looks for the expected page fragments and
prints a working / needs debugging report for each page.

Settings come from the environment (BASE_URL, TARGETS_FILE, LOG_DIR, ...);
run "pagecheck preflight" to see them.`,
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runOnce(ctx, config.FromEnv(), cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewPreflightCommand())
	return cmd
}

// deps is everything a run needs, built from config.
type deps struct {
	logger    *zap.Logger
	targets   []domain.CheckTarget
	runner    *harness.Runner
	collector *metrics.Collector
	notifier  notify.Notifier
}

func buildDeps(cfg config.Config, sink harness.Sink) (*deps, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	targets, err := cfg.Targets()
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewLogger(cfg.LogDir, logging.ParseLevel(cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}

	collector := metrics.NewCollector()
	fetcher := probe.WithRetry(probe.NewHTTPFetcher(cfg.HTTPTimeout), cfg.RetryAttempts, cfg.RetryBackoff,
		func(url string, attempt int, err error) {
			collector.RecordRetry(url)
			logger.Info("fetch_retry", zap.String("url", url), zap.Int("attempt", attempt), zap.Error(err))
		})

	runner := harness.NewRunner(logger, fetcher, sink, runTimeout(cfg), cfg.MaxConcurrentChecks)
	runner.Metrics = collector
	runner.DNS = probe.NewDNSDiagnoser()

	var notifier notify.Notifier = notify.Nop{}
	if s := notify.NewSlack(cfg.SlackWebhookURL); s != nil {
		notifier = notify.Multi{s}
	}

	return &deps{
		logger:    logger,
		targets:   targets,
		runner:    runner,
		collector: collector,
		notifier:  notifier,
	}, nil
}

// runTimeout bounds a whole run: every attempt plus the backoff between them.
func runTimeout(cfg config.Config) time.Duration {
	attempts := max(cfg.RetryAttempts, 1)
	return cfg.HTTPTimeout*time.Duration(attempts) + cfg.RetryBackoff*time.Duration(attempts-1)
}

func runOnce(ctx context.Context, cfg config.Config, out io.Writer) error {
	d, err := buildDeps(cfg, report.NewPrinter(out))
	if err != nil {
		return err
	}
	defer func() { _ = d.logger.Sync() }()

	d.logger.Info("run_start", zap.String("base_url", cfg.BaseURL), zap.Int("targets", len(d.targets)))
	reports := d.runner.Run(ctx, d.targets)

	for _, r := range reports {
		if r.Verdict == domain.VerdictWorking {
			continue
		}
		title, text := notify.ReportMessage(r)
		if err := d.notifier.Send(ctx, title, text); err != nil {
			d.logger.Warn("alert_send_error", zap.String("url", r.Target.URL), zap.Error(err))
		}
	}

	if cfg.MetricsFile != "" {
		if err := d.collector.WriteTextfile(cfg.MetricsFile); err != nil {
			d.logger.Warn("metrics_write_error", zap.String("path", cfg.MetricsFile), zap.Error(err))
		}
	}

	if !harness.AllWorking(reports) {
		return ErrNeedsDebugging
	}
	return nil
}
