package shared

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/eddy80524/dental-quiz-app/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceID(t *testing.T) {
	t.Parallel()

	assert.Empty(t, GetTraceID(context.Background()))
	assert.Equal(t, "abc", GetTraceID(WithTraceID(context.Background(), "abc")))
	assert.NotEmpty(t, GetTraceID(WithTraceID(context.Background(), "")))
	assert.Empty(t, GetTraceID(context.WithValue(context.Background(), TraceIDKey, 123)))
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	type payload struct {
		Name    string `json:"name" validate:"required"`
		Quality any    `json:"quality"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "valid", body: `{"name":"q1","quality":4}`},
		{name: "unknown field", body: `{"name":"q1","extra":true}`, wantErr: true},
		{name: "trailing object", body: `{"name":"q1"}{"name":"q2"}`, wantErr: true},
		{name: "malformed", body: `{"name":`, wantErr: true},
		{name: "empty", body: ``, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			err := DecodeJSON(httptest.NewRecorder(), req, &p)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "q1", p.Name)
			assert.Equal(t, json.Number("4"), p.Quality)
		})
	}
}

func TestValidateRequest(t *testing.T) {
	t.Parallel()

	type req struct {
		Name string `validate:"required,max=3"`
	}
	assert.NoError(t, ValidateRequest(&req{Name: "abc"}))
	assert.Error(t, ValidateRequest(&req{}))
	assert.Error(t, ValidateRequest(&req{Name: "abcd"}))
}

func TestRespondWithErrorAndLog(t *testing.T) {
	t.Parallel()
	log, buf := logger.NewTestLogger()

	ctx := logger.WithLogger(WithTraceID(context.Background(), "trace-1"), log)
	req := httptest.NewRequest(http.MethodPost, "/api/users/u1/answers", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	RespondWithErrorAndLog(rec, req, http.StatusInternalServerError, "Failed to submit answer",
		errors.New("dial tcp 10.0.0.1:5432: connection refused"), WithRetryable())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "Failed to submit answer", body.Error)
	assert.Equal(t, "trace-1", body.TraceID)
	assert.True(t, body.Retryable)

	logs := buf.String()
	assert.Contains(t, logs, `"level":"ERROR"`)
	assert.Contains(t, logs, "[REDACTED_HOST]")
	assert.NotContains(t, logs, "10.0.0.1")
}
