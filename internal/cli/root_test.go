package cli

import (
	"bytes"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamed0406/pagecheck/internal/config"
)

func devServer(t *testing.T, workspaceBody string) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><title>ValueVerse</title>ValueVerse Get Started</html>"))
	})
	r.Get("/workspace", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(workspaceBody))
	})
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}

func setEnv(t *testing.T, baseURL string) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("BASE_URL", baseURL)
	t.Setenv("LOG_DIR", filepath.Join(dir, "logs"))
	t.Setenv("TARGETS_FILE", "")
	t.Setenv("RETRY_ATTEMPTS", "")
	t.Setenv("SLACK_WEBHOOK_URL", "")
	t.Setenv("MAX_CONCURRENT_CHECKS", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("METRICS_FILE", filepath.Join(dir, "pagecheck.prom"))
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRoot_AllWorking(t *testing.T) {
	ts := devServer(t, "<html>ValueVerse AI Assistant Value Canvas</html>")
	dir := setEnv(t, ts.URL)

	out, err := execute(t)
	require.NoError(t, err)

	assert.Contains(t, out, "== "+ts.URL+"/ ==")
	assert.Contains(t, out, "== "+ts.URL+"/workspace ==")
	assert.Equal(t, 2, strings.Count(out, "Status: 200"))
	assert.Equal(t, 2, strings.Count(out, "Result: working"))
	assert.NotContains(t, out, "✘ missing")

	prom, err := os.ReadFile(filepath.Join(dir, "pagecheck.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(prom), "pagecheck_runs_total")

	_, err = os.Stat(filepath.Join(dir, "logs", "pagecheck.log"))
	assert.NoError(t, err)
}

func TestRoot_WorkspaceBrokenNeedsDebugging(t *testing.T) {
	ts := devServer(t, "<html>Nothing here</html>")
	setEnv(t, ts.URL)

	out, err := execute(t)
	require.ErrorIs(t, err, ErrNeedsDebugging)
	assert.Contains(t, out, `✘ missing Right panel: "Value Canvas"`)
	assert.Equal(t, 1, strings.Count(out, "Result: working"))
	assert.Equal(t, 1, strings.Count(out, "Result: needs debugging"))
}

func TestRoot_ServerDownStillReportsBoth(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	setEnv(t, "http://"+addr)

	out, err := execute(t)
	require.ErrorIs(t, err, ErrNeedsDebugging)
	assert.Equal(t, 2, strings.Count(out, "Connection error: "))
	assert.Equal(t, 2, strings.Count(out, "Result: needs debugging"))
	assert.NotContains(t, out, "found")
}

func TestRoot_RejectsArgs(t *testing.T) {
	setEnv(t, "http://localhost:3000")
	_, err := execute(t, "extra")
	assert.Error(t, err)
}

func TestPreflight(t *testing.T) {
	setEnv(t, "http://localhost:3000")
	out, err := execute(t, "preflight")
	require.NoError(t, err)
	assert.Contains(t, out, "target http://localhost:3000/workspace")
	assert.Contains(t, out, "preflight passed")

	t.Setenv("BASE_URL", "::not-a-url")
	out, err = execute(t, "preflight")
	assert.Error(t, err)
	assert.NotContains(t, out, "preflight passed")
}

func TestRunTimeout(t *testing.T) {
	setEnv(t, "http://localhost:3000")
	t.Setenv("HTTP_TIMEOUT_MS", "1000")
	t.Setenv("RETRY_ATTEMPTS", "3")
	t.Setenv("RETRY_BACKOFF_MS", "100")
	cfg := config.FromEnv()
	assert.Equal(t, "3.2s", runTimeout(cfg).String())
}
