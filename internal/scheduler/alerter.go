package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/pagecheck/internal/domain"
	"github.com/hamed0406/pagecheck/internal/notify"
	"github.com/hamed0406/pagecheck/internal/repo"
)

type AlerterConfig struct {
	AlertOnRecovery bool
	Cooldown        time.Duration
	PollInterval    time.Duration
}

// Alerter watches the latest report per target and notifies on verdict changes.
type Alerter struct {
	logger   *zap.Logger
	reports  repo.ReportStore
	alertDB  repo.AlertStore
	notifier notify.Notifier
	cfg      AlerterConfig
	now      func() time.Time
}

func NewAlerter(logger *zap.Logger, reports repo.ReportStore, alertDB repo.AlertStore, n notify.Notifier, cfg AlerterConfig) *Alerter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if n == nil {
		n = notify.Nop{}
	}
	return &Alerter{
		logger:   logger,
		reports:  reports,
		alertDB:  alertDB,
		notifier: n,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (a *Alerter) Run(ctx context.Context) error {
	if a.cfg.PollInterval <= 0 {
		return nil
	}
	t := time.NewTicker(a.cfg.PollInterval)
	defer t.Stop()

	_ = a.ScanOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if err := a.ScanOnce(ctx); err != nil {
				a.logger.Warn("alerter_scan_error", zap.Error(err))
			}
		}
	}
}

func (a *Alerter) ScanOnce(ctx context.Context) error {
	latest, err := a.reports.Latest(ctx)
	if err != nil {
		return err
	}
	now := a.now()

	for _, r := range latest {
		url := r.Target.URL
		rec, err := a.alertDB.Get(ctx, url)
		if err != nil {
			a.logger.Warn("alerter_get_error", zap.String("url", url), zap.Error(err))
			continue
		}

		working := r.Verdict == domain.VerdictWorking
		// first sighting of a working page is not news
		stateChanged := (rec == nil && !working) || (rec != nil && rec.LastVerdict != r.Verdict)

		cooled := true
		if rec != nil && rec.LastSentAt != nil {
			cooled = now.Sub(*rec.LastSentAt) >= a.cfg.Cooldown
		}

		downAlert := stateChanged && !working && cooled
		recoveryAlert := stateChanged && working && a.cfg.AlertOnRecovery

		if downAlert || recoveryAlert {
			title, text := notify.ReportMessage(r)
			if err := a.notifier.Send(ctx, title, text); err != nil {
				a.logger.Warn("alert_send_error", zap.String("url", url), zap.Error(err))
			} else {
				a.logger.Info("alert_sent", zap.String("url", url), zap.String("verdict", string(r.Verdict)))
			}
			_ = a.alertDB.Set(ctx, url, r.Verdict, now)
			continue
		}

		if stateChanged && !working {
			// keep the old verdict so the down alert fires once the cooldown ends
			a.logger.Info("alert_deferred", zap.String("url", url), zap.Duration("cooldown", a.cfg.Cooldown))
			continue
		}
		if rec == nil || stateChanged {
			_ = a.alertDB.Set(ctx, url, r.Verdict, time.Time{})
		}
	}
	return nil
}
