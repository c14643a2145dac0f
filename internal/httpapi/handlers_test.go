package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hamed0406/pagecheck/internal/domain"
	apimw "github.com/hamed0406/pagecheck/internal/httpapi/middleware"
	"github.com/hamed0406/pagecheck/internal/metrics"
	"github.com/hamed0406/pagecheck/internal/repo/memory"
)

// ---- test helpers ----

type fakeBatch struct {
	out []domain.RunReport
}

func (f *fakeBatch) Run(_ context.Context, _ []domain.CheckTarget) []domain.RunReport {
	// always return the same reports so tests are deterministic
	return f.out
}

func cannedReports() []domain.RunReport {
	now := time.Now().UTC()
	return []domain.RunReport{
		{
			ID:     "r1",
			Target: domain.CheckTarget{URL: "http://localhost:3000/"},
			Result: &domain.FetchResult{StatusCode: 200, Title: "ValueVerse"},
			Checks: []domain.FragmentCheckResult{
				{Label: "Main branding", Fragment: "ValueVerse", Found: true},
			},
			Verdict:   domain.VerdictWorking,
			StartedAt: now,
		},
		{
			ID:        "r2",
			Target:    domain.CheckTarget{URL: "http://localhost:3000/workspace"},
			Err:       &domain.ConnectionError{Err: errors.New("connect: connection refused")},
			Verdict:   domain.VerdictNeedsDebugging,
			StartedAt: now,
		},
	}
}

var testKeys = apimw.Keys{Public: []string{"pub_key"}, Admin: []string{"k_test"}}

func setupRouter(t *testing.T, keys apimw.Keys) (http.Handler, *memory.Store) {
	t.Helper()
	store := memory.New(0)
	srv := NewServer(zap.NewNop(), &fakeBatch{out: cannedReports()}, store, nil, metrics.NewCollector().Handler())
	// very high rate limits to avoid flakiness in tests
	return srv.Router(keys, nil, 10_000, 10_000), store
}

// ---- tests ----

func TestRunThenLatest(t *testing.T) {
	h, _ := setupRouter(t, testKeys)
	ts := httptest.NewServer(h)
	defer ts.Close()

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/runs", nil)
	req.Header.Set("X-API-Key", "k_test")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var runs []reportView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&runs))
	require.Len(t, runs, 2)
	require.NotNil(t, runs[0].StatusCode)
	assert.Equal(t, 200, *runs[0].StatusCode)
	assert.Equal(t, domain.VerdictWorking, runs[0].Verdict)
	assert.Nil(t, runs[1].StatusCode)
	assert.Equal(t, "connect: connection refused", runs[1].Error)
	assert.Empty(t, runs[1].Checks)

	reqL, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/runs/latest", nil)
	reqL.Header.Set("Authorization", "Bearer pub_key")
	respL, err := http.DefaultClient.Do(reqL)
	require.NoError(t, err)
	defer respL.Body.Close()
	require.Equal(t, http.StatusOK, respL.StatusCode)

	var latest []map[string]any
	require.NoError(t, json.NewDecoder(respL.Body).Decode(&latest))
	require.Len(t, latest, 2)
	assert.Equal(t, "http://localhost:3000/", latest[0]["url"])
	assert.Equal(t, "needs debugging", latest[1]["verdict"])
}

func TestRuns_RequireKey(t *testing.T) {
	h, store := setupRouter(t, testKeys)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/runs", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	latest, _ := store.Latest(context.Background())
	assert.Empty(t, latest, "unauthorised run must not execute")
}

func TestRuns_PublicKeyCannotTrigger(t *testing.T) {
	h, store := setupRouter(t, testKeys)

	req := httptest.NewRequest(http.MethodPost, "/api/runs", nil)
	req.Header.Set("X-API-Key", "pub_key")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	latest, _ := store.Latest(context.Background())
	assert.Empty(t, latest, "public key must not start a run")

	req = httptest.NewRequest(http.MethodGet, "/api/runs/latest", nil)
	req.Header.Set("X-API-Key", "pub_key")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthzAndMetrics(t *testing.T) {
	h, _ := setupRouter(t, testKeys)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestToView_DurationAndTitle(t *testing.T) {
	v := toView(domain.RunReport{
		Target:   domain.CheckTarget{URL: "u"},
		Result:   &domain.FetchResult{StatusCode: 404, Title: "Not Found"},
		Duration: 1500 * time.Microsecond,
	})
	assert.Equal(t, 1.5, v.DurationMS)
	assert.Equal(t, "Not Found", v.Title)
	assert.Equal(t, 404, *v.StatusCode)
	assert.NotNil(t, v.Checks)
}
