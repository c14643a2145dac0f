package probe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamed0406/pagecheck/internal/domain"
)

type step struct {
	res domain.FetchResult
	err error
}

// scripted fetcher you can control
type fakeFetcher struct {
	steps []step
	calls int
}

func (f *fakeFetcher) Fetch(ctx context.Context, target string) (domain.FetchResult, error) {
	defer func() { f.calls++ }()
	if f.calls >= len(f.steps) {
		return domain.FetchResult{}, &domain.ConnectionError{URL: target, Err: errors.New("no more")}
	}
	s := f.steps[f.calls]
	return s.res, s.err
}

func refused(url string) error {
	return &domain.ConnectionError{URL: url, Err: errors.New("connection refused")}
}

func TestRetryFetcher_SucceedsAfterRetry(t *testing.T) {
	f := &fakeFetcher{steps: []step{
		{err: refused("http://x")},
		{res: domain.FetchResult{StatusCode: 200, Body: "ok"}},
	}}
	var retried []int
	rf := &RetryFetcher{
		Inner:    f,
		Attempts: 3,
		Backoff:  time.Millisecond,
		OnRetry:  func(_ string, attempt int, _ error) { retried = append(retried, attempt) },
	}
	out, err := rf.Fetch(context.Background(), "http://x")
	require.NoError(t, err)
	assert.Equal(t, 200, out.StatusCode)
	assert.Equal(t, 2, f.calls)
	assert.Equal(t, []int{2}, retried)
}

func TestRetryFetcher_AllFailReturnsLastError(t *testing.T) {
	f := &fakeFetcher{steps: []step{{err: refused("a")}, {err: refused("b")}}}
	rf := &RetryFetcher{Inner: f, Attempts: 2}
	_, err := rf.Fetch(context.Background(), "http://x")
	var ce *domain.ConnectionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "b", ce.URL)
	assert.Equal(t, 2, f.calls)
}

func TestRetryFetcher_DoesNotRetryHTTPErrors(t *testing.T) {
	f := &fakeFetcher{steps: []step{{res: domain.FetchResult{StatusCode: 500}}}}
	rf := &RetryFetcher{Inner: f, Attempts: 5}
	out, err := rf.Fetch(context.Background(), "http://x")
	require.NoError(t, err)
	assert.Equal(t, 500, out.StatusCode)
	assert.Equal(t, 1, f.calls)
}

func TestWithRetry_SingleAttemptIsUnwrapped(t *testing.T) {
	f := &fakeFetcher{}
	assert.Same(t, Fetcher(f), WithRetry(f, 1, 0, nil))
	_, wrapped := WithRetry(f, 3, 0, nil).(*RetryFetcher)
	assert.True(t, wrapped)
}

func TestWithRetry_PassesOnRetry(t *testing.T) {
	f := &fakeFetcher{steps: []step{
		{err: refused("http://x")},
		{err: refused("http://x")},
		{res: domain.FetchResult{StatusCode: 200}},
	}}
	var attempts []int
	fetcher := WithRetry(f, 3, time.Millisecond, func(url string, attempt int, err error) {
		assert.Equal(t, "http://x", url)
		attempts = append(attempts, attempt)
	})

	out, err := fetcher.Fetch(context.Background(), "http://x")
	require.NoError(t, err)
	assert.Equal(t, 200, out.StatusCode)
	assert.Equal(t, []int{2, 3}, attempts)
}
