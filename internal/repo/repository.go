package repo

import (
	"context"

	"github.com/hamed0406/pagecheck/internal/domain"
)

// ReportStore keeps run reports for the API and the alerter.
type ReportStore interface {
	Append(ctx context.Context, r domain.RunReport) error
	// Latest returns the newest report per target URL, sorted by URL.
	Latest(ctx context.Context) ([]domain.RunReport, error)
}
