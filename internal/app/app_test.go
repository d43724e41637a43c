package app

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idxlens/internal/config"
)

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func newTestApplication(t *testing.T) *Application {
	t.Helper()

	paths := config.PathsFor(t.TempDir())
	require.NoError(t, paths.EnsureDirectories())

	logger := slog.New(slog.NewTextHandler(nopWriter{}, &slog.HandlerOptions{Level: slog.LevelError + 4}))

	app, err := newApplicationWith(config.Default(), paths, logger, nil)
	require.NoError(t, err)
	return app
}

func seedData(t *testing.T, app *Application) {
	t.Helper()

	write := func(path, content string) {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	write(app.Paths.ConstituentsCSV, "Symbol,Name,Sector,SubSector,DateAdded\nAAA,Alpha Corp,Industrials,Machinery,2010-03-01\n")
	write(app.Paths.ChangesCSV, "Date,AddedSymbol,AddedName,RemovedSymbol,RemovedName,Reason\n2024-02-15,AAA,Alpha Corp,ZZZ,Omega Plc,Index change\n")
	write(app.Paths.IndexCSV, "Date,IDX60,IDX15\n2024-01-01,100,50\n2024-01-02,101,50.5\n2024-01-03,102,51\n2024-01-04,103,51.5\n")
}

func TestRouterHealthz(t *testing.T) {
	app := newTestApplication(t)

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "ok", got["status"])
}

func TestRouterReadinessWithoutData(t *testing.T) {
	app := newTestApplication(t)

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouterConstituentsEndToEnd(t *testing.T) {
	app := newTestApplication(t)
	seedData(t, app)

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/constituents", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, float64(1), got["count"])
}

func TestRouterRollingCorrelationEndToEnd(t *testing.T) {
	app := newTestApplication(t)
	seedData(t, app)

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/analytics/rolling-correlation?series_a=IDX60&series_b=IDX15&window=3", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, float64(3), got["window"])
}

func TestRouterNotFoundIsProblemJSON(t *testing.T) {
	app := newTestApplication(t)

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "/errors/not-found", got["type"])
}

func TestRouterSetsRequestID(t *testing.T) {
	app := newTestApplication(t)

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz/live", nil))

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
