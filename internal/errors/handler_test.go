package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler() *ErrorHandler {
	logger := slog.New(slog.NewTextHandler(discardWriter{}, &slog.HandlerOptions{Level: slog.LevelError + 4}))
	return NewErrorHandler(logger, false)
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	return got
}

func TestHandleErrorAPIError(t *testing.T) {
	h := newTestHandler()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/memberships", nil)

	h.HandleError(rec, req, ErrDataNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	got := decodeProblem(t, rec)
	assert.Equal(t, TypeDataNotFound, got["type"])
	assert.Equal(t, "DATA_NOT_FOUND", got["error_code"])
	assert.Equal(t, "/api/memberships", got["instance"])
}

func TestHandleErrorAppError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "network maps to bad gateway",
			err:        NewNetworkError("fetch source page", fmt.Errorf("timeout")),
			wantStatus: http.StatusBadGateway,
			wantType:   TypeScrapeFailed,
		},
		{
			name:       "parsing maps to unprocessable",
			err:        NewParsingError("changes table missing", nil),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeDataCorrupted,
		},
		{
			name:       "not found maps to 404",
			err:        NewAppNotFoundError("constituents.csv"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
		},
		{
			name:       "validation maps to 400",
			err:        NewAppValidationError("bad month"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler()
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/test", nil)

			h.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			got := decodeProblem(t, rec)
			assert.Equal(t, tt.wantType, got["type"])
		})
	}
}

func TestHandleErrorContextCancelled(t *testing.T) {
	h := newTestHandler()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)

	h.HandleError(rec, req, context.Canceled)

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestHandleErrorGenericFallback(t *testing.T) {
	h := newTestHandler()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)

	h.HandleError(rec, req, fmt.Errorf("something broke"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	got := decodeProblem(t, rec)
	assert.Equal(t, TypeInternal, got["type"])
}

func TestMiddlewareRecoversPanic(t *testing.T) {
	h := newTestHandler()
	handler := h.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestNotFoundHandler(t *testing.T) {
	h := newTestHandler()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)

	h.NotFound(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	got := decodeProblem(t, rec)
	assert.Equal(t, "/nope", got["instance"])
}
