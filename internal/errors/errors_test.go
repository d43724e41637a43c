package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorFormatting(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "with cause",
			err:  NewNetworkError("fetch failed", fmt.Errorf("connection refused")),
			want: "[NETWORK] fetch failed: connection refused",
		},
		{
			name: "without cause",
			err:  NewAppValidationError("window must be at least 2"),
			want: "[VALIDATION] window must be at least 2",
		},
		{
			name: "not found",
			err:  NewAppNotFoundError("memberships.csv"),
			want: "[NOT_FOUND] memberships.csv not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := NewStorageError("write report", cause)

	assert.Equal(t, cause, err.Unwrap())
}

func TestAppErrorWithContext(t *testing.T) {
	err := NewParsingError("bad date", nil).
		WithContext("row", 12).
		WithContext("column", "Date")

	assert.Equal(t, 12, err.Context["row"])
	assert.Equal(t, "Date", err.Context["column"])
}

func TestAPIErrorPredefined(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, ErrDataNotFound.StatusCode)
	assert.Equal(t, "DATA_NOT_FOUND", ErrDataNotFound.ErrorCode)
	assert.Equal(t, http.StatusConflict, ErrPipelineRunning.StatusCode)
	assert.Equal(t, http.StatusTooManyRequests, ErrRateLimitExceeded.StatusCode)
}

func TestErrValidationDetails(t *testing.T) {
	err := ErrValidation("window", "must be at least 2")

	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	detail, ok := err.Details.(ValidationError)
	require.True(t, ok)
	assert.Equal(t, "window", detail.Field)
}

func TestProblemDetailsMarshalIncludesExtensions(t *testing.T) {
	pd := NewProblemDetails(http.StatusNotFound, TypeDataNotFound, "Data Not Found", "run the scraper first", "/api/memberships").
		WithExtension("trace_id", "abc-123")

	raw, err := json.Marshal(pd)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))

	assert.Equal(t, TypeDataNotFound, got["type"])
	assert.Equal(t, float64(http.StatusNotFound), got["status"])
	assert.Equal(t, "abc-123", got["trace_id"])
	assert.Equal(t, "run the scraper first", got["detail"])
}
