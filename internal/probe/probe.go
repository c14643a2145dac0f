package probe

import (
	"context"

	"github.com/hamed0406/pagecheck/internal/domain"
)

// Fetcher performs a single GET against url.
//
// A returned error is always a *domain.ConnectionError: any HTTP response,
// whatever its status, counts as a completed fetch.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (domain.FetchResult, error)
}
