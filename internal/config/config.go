package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/hamed0406/pagecheck/internal/domain"
)

var validate = validator.New()

type Config struct {
	BaseURL             string        `validate:"required,url"` // dev server under test
	TargetsFile         string        // optional YAML replacing the built-in targets
	LogDir              string        `validate:"required"`
	HTTPTimeout         time.Duration `validate:"gt=0"`
	RetryAttempts       int           `validate:"min=1"` // 1 = no retry
	RetryBackoff        time.Duration `validate:"gte=0"`
	MaxConcurrentChecks int           `validate:"min=2"` // the default pair runs together
	LogLevel            string        `validate:"oneof=debug info warn error"`
	MetricsFile         string        // optional Prometheus textfile written after a one-shot run
	SlackWebhookURL     string        `validate:"omitempty,url"`

	// serve mode
	Addr           string        `validate:"required"`
	APIKeys        []string      // read-only: GET /api/runs/latest
	APIAdminKeys   []string      // may trigger runs: POST /api/runs
	AllowedOrigins []string      // CORS allow-list, empty allows all
	APIRPM         int
	APIBurst       int           `validate:"gte=0"`
	CheckInterval  time.Duration `validate:"gte=0"` // 0 disables the background loop
	AlertCooldown  time.Duration `validate:"gte=0"`
}

func FromEnv() Config {
	return Config{
		BaseURL:             strings.TrimRight(envString("BASE_URL", DefaultBaseURL), "/"),
		TargetsFile:         os.Getenv("TARGETS_FILE"),
		LogDir:              envString("LOG_DIR", "logs"),
		HTTPTimeout:         envMillis("HTTP_TIMEOUT_MS", 10*time.Second),
		RetryAttempts:       envInt("RETRY_ATTEMPTS", 1),
		RetryBackoff:        envMillis("RETRY_BACKOFF_MS", 300*time.Millisecond),
		MaxConcurrentChecks: envInt("MAX_CONCURRENT_CHECKS", 2),
		LogLevel:            strings.ToLower(envString("LOG_LEVEL", "info")),
		MetricsFile:         os.Getenv("METRICS_FILE"),
		SlackWebhookURL:     os.Getenv("SLACK_WEBHOOK_URL"),
		Addr:                envString("API_ADDR", "127.0.0.1:8080"),
		APIKeys:             splitList(os.Getenv("API_KEYS")),
		APIAdminKeys:        splitList(os.Getenv("API_ADMIN_KEYS")),
		AllowedOrigins:      splitList(os.Getenv("ALLOWED_ORIGINS")),
		APIRPM:              envInt("API_RPM", 60),
		APIBurst:            envInt("API_BURST", 10),
		CheckInterval:       envMillis("CHECK_INTERVAL_MS", 0),
		AlertCooldown:       envMillis("ALERT_COOLDOWN_MS", 5*time.Minute),
	}
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("config validation failed: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("field '%s' failed validation: %s", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// Targets returns the checks to run: the built-in pair unless TargetsFile is set.
func (c Config) Targets() ([]domain.CheckTarget, error) {
	if c.TargetsFile == "" {
		return DefaultTargets(c.BaseURL), nil
	}
	return LoadTargets(c.TargetsFile, c.BaseURL)
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// envInt ignores unparsable values so a typo falls back to the default.
func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envMillis(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
