package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hamed0406/pagecheck/internal/config"
	"github.com/hamed0406/pagecheck/internal/httpapi"
	apimw "github.com/hamed0406/pagecheck/internal/httpapi/middleware"
	"github.com/hamed0406/pagecheck/internal/repo/memory"
	"github.com/hamed0406/pagecheck/internal/scheduler"
)

func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the checks over HTTP and re-run them in the background",
		Long: `serve exposes POST /api/runs, GET /api/runs/latest, /metrics and /healthz
on API_ADDR. With CHECK_INTERVAL_MS > 0 the pages are re-checked on that
interval and verdict changes are sent to SLACK_WEBHOOK_URL.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, config.FromEnv())
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	// the API has no terminal to print to; reports go to the store and the log
	d, err := buildDeps(cfg, nil)
	if err != nil {
		return err
	}
	logger := d.logger
	defer func() { _ = logger.Sync() }()

	store := memory.New(0)
	api := httpapi.NewServer(logger, d.runner, store, d.targets, d.collector.Handler())
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Router(apiKeys(cfg), cfg.AllowedOrigins, cfg.APIRPM, cfg.APIBurst),
		ReadHeaderTimeout: 5 * time.Second,
	}

	watcher := scheduler.NewWatcher(logger, d.runner, store, d.targets, cfg.CheckInterval)
	alerter := scheduler.NewAlerter(logger, store, store, d.notifier, scheduler.AlerterConfig{
		AlertOnRecovery: true,
		Cooldown:        cfg.AlertCooldown,
		PollInterval:    cfg.CheckInterval,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("api_listen", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		watcher.Run(gctx)
		return nil
	})
	g.Go(func() error {
		if err := alerter.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("api_shutdown")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func apiKeys(cfg config.Config) apimw.Keys {
	return apimw.Keys{Public: cfg.APIKeys, Admin: cfg.APIAdminKeys}
}
