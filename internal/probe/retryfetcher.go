package probe

import (
	"context"
	"time"

	"github.com/hamed0406/pagecheck/internal/domain"
)

// RetryFetcher retries connection failures. Any HTTP response ends the loop,
// so a 500 page is reported as-is rather than retried.
type RetryFetcher struct {
	Inner    Fetcher
	Attempts int
	Backoff  time.Duration
	// OnRetry is called before each repeat attempt; may be nil.
	OnRetry func(url string, attempt int, err error)
}

// WithRetry wraps f only when more than one attempt is requested. onRetry may be nil.
func WithRetry(f Fetcher, attempts int, backoff time.Duration, onRetry func(url string, attempt int, err error)) Fetcher {
	if attempts <= 1 {
		return f
	}
	return &RetryFetcher{Inner: f, Attempts: attempts, Backoff: backoff, OnRetry: onRetry}
}

func (r *RetryFetcher) Fetch(ctx context.Context, target string) (domain.FetchResult, error) {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var (
		res domain.FetchResult
		err error
	)
	for i := 0; i < attempts; i++ {
		res, err = r.Inner.Fetch(ctx, target)
		if err == nil {
			return res, nil
		}
		if i == attempts-1 {
			break
		}
		if r.OnRetry != nil {
			r.OnRetry(target, i+2, err)
		}
		select {
		case <-ctx.Done():
			return res, err
		case <-time.After(r.Backoff):
		}
	}
	return res, err
}
