package repo

import (
	"context"
	"time"

	"github.com/hamed0406/pagecheck/internal/domain"
)

// AlertRecord holds the last verdict seen for a target and the last time a
// notification went out (used for cooldown).
type AlertRecord struct {
	URL         string
	LastVerdict domain.Verdict
	LastSentAt  *time.Time
}

type AlertStore interface {
	// Get returns nil, nil if there's no record yet.
	Get(ctx context.Context, url string) (*AlertRecord, error)
	// Set upserts the record. A zero sentAt keeps LastSentAt unchanged.
	Set(ctx context.Context, url string, verdict domain.Verdict, sentAt time.Time) error
}
