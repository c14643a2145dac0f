package notify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/hamed0406/pagecheck/internal/domain"
)

type Notifier interface {
	Send(ctx context.Context, title, text string) error
}

// Multi fans a message out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, title, text string) error {
	var err error
	for _, n := range m {
		if n == nil {
			continue
		}
		err = multierr.Append(err, n.Send(ctx, title, text))
	}
	return err
}

// Nop drops every message.
type Nop struct{}

func (Nop) Send(context.Context, string, string) error { return nil }

// ReportMessage renders a run report as an alert title and body.
func ReportMessage(r domain.RunReport) (string, string) {
	title := "🔴 Page needs debugging"
	if r.Verdict == domain.VerdictWorking {
		title = "🟢 Page working again"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "URL: %s\n", r.Target.URL)
	if r.Err != nil {
		fmt.Fprintf(&b, "Connection error: %s\n", r.Err.Error())
	} else if r.Result != nil {
		fmt.Fprintf(&b, "HTTP: %d\n", r.Result.StatusCode)
	}
	var missing []string
	for _, c := range r.Checks {
		if !c.Found {
			missing = append(missing, c.Label)
		}
	}
	if len(missing) > 0 {
		fmt.Fprintf(&b, "Missing: %s\n", strings.Join(missing, ", "))
	}
	if r.MissingModule.Present {
		path := r.MissingModule.Path
		if path == "" {
			path = "unknown"
		}
		fmt.Fprintf(&b, "Module not found: %s\n", path)
	}
	fmt.Fprintf(&b, "Run: %s", r.ID)
	return title, b.String()
}
