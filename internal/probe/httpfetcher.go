package probe

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hamed0406/pagecheck/internal/domain"
)

const userAgent = "pagecheck/1.0"

type HTTPFetcher struct {
	Client *http.Client
}

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		Client: &http.Client{Timeout: timeout},
	}
}

func (h *HTTPFetcher) Fetch(ctx context.Context, target string) (domain.FetchResult, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return domain.FetchResult{}, &domain.ConnectionError{URL: target, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := h.Client.Do(req)
	if err != nil {
		return domain.FetchResult{}, &domain.ConnectionError{URL: target, Err: err}
	}
	defer resp.Body.Close()

	// a connection dropped mid-body is still a connection failure
	var sb strings.Builder
	if _, err := io.Copy(&sb, resp.Body); err != nil {
		return domain.FetchResult{}, &domain.ConnectionError{URL: target, Err: err}
	}

	body := sb.String()
	return domain.FetchResult{
		StatusCode: resp.StatusCode,
		Body:       body,
		Title:      PageTitle(body),
		Latency:    time.Since(start),
	}, nil
}
