package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hamed0406/pagecheck/internal/config"
)

var errPreflight = errors.New("preflight failed")

func NewPreflightCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "preflight",
		Short: "Check the environment before running pagecheck",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return preflight(config.FromEnv(), cmd.OutOrStdout())
		},
	}
}

func preflight(cfg config.Config, out io.Writer) error {
	failed := false
	fail := func(msg string) {
		failed = true
		fmt.Fprintln(out, color.RedString("✖"), msg)
	}
	warn := func(msg string) { fmt.Fprintln(out, color.YellowString("⚠"), msg) }
	ok := func(msg string) { fmt.Fprintln(out, color.GreenString("✔"), msg) }

	if err := cfg.Validate(); err != nil {
		fail(err.Error())
	} else {
		ok("BASE_URL=" + cfg.BaseURL)
	}

	if targets, err := cfg.Targets(); err != nil {
		fail("targets: " + err.Error())
	} else {
		for _, t := range targets {
			marker, _ := t.BrandingMarker()
			ok(fmt.Sprintf("target %s (%d fragments, branding %q)", t.URL, len(t.Fragments), marker.Text))
		}
	}

	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		fail("LOG_DIR not writable: " + err.Error())
	} else if f, err := os.CreateTemp(cfg.LogDir, ".preflight-*"); err != nil {
		fail("LOG_DIR not writable: " + err.Error())
	} else {
		name := f.Name()
		_ = f.Close()
		_ = os.Remove(name)
		ok("LOG_DIR=" + filepath.Clean(cfg.LogDir))
	}

	if cfg.RetryAttempts > 1 {
		warn(fmt.Sprintf("RETRY_ATTEMPTS=%d; connection errors will be retried", cfg.RetryAttempts))
	}
	if cfg.SlackWebhookURL == "" {
		warn("SLACK_WEBHOOK_URL empty; no alerts will be sent.")
	} else {
		ok("SLACK_WEBHOOK_URL present")
	}
	if len(cfg.APIAdminKeys) == 0 {
		warn("API_ADMIN_KEYS empty; serve mode accepts unauthenticated runs.")
	}
	if len(cfg.APIKeys) == 0 && len(cfg.APIAdminKeys) == 0 {
		warn("API_KEYS empty; serve mode serves reports without a key.")
	}

	if failed {
		return errPreflight
	}
	ok("preflight passed")
	return nil
}
