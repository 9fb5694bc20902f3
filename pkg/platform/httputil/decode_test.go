package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "kubecred/pkg/domain-errors"
)

type plainRequest struct {
	HolderName string `json:"holderName"`
}

type validatingRequest struct {
	HolderName string `json:"holderName"`
	sanitized  bool
}

func (r *validatingRequest) Sanitize() {
	r.sanitized = true
}

func (r *validatingRequest) Validate() error {
	if r.HolderName == "" {
		return errors.New("holderName is required")
	}
	return nil
}

type domainRequest struct {
	ID string `json:"id"`
}

func (r *domainRequest) Validate() error {
	if r.ID == "" {
		return dErrors.New(dErrors.CodeValidation, "id is required")
	}
	return nil
}

func decodeFailure(t *testing.T, w *httptest.ResponseRecorder) FailureResponse {
	t.Helper()
	var resp FailureResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestDecodeJSON(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	t.Run("successful decode", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"holderName":"John Doe"}`))
		w := httptest.NewRecorder()

		result, ok := DecodeJSON[plainRequest](w, req, logger, ctx, "req-1")

		assert.True(t, ok)
		require.NotNil(t, result)
		assert.Equal(t, "John Doe", result.HolderName)
	})

	t.Run("invalid JSON returns 400 envelope", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{not json}`))
		w := httptest.NewRecorder()

		result, ok := DecodeJSON[plainRequest](w, req, logger, ctx, "req-1")

		assert.False(t, ok)
		assert.Nil(t, result)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeFailure(t, w)
		assert.False(t, resp.Success)
		assert.Equal(t, "invalid request body", resp.Message)
	})
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	t.Run("sanitizes and validates", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"holderName":"Jane"}`))
		w := httptest.NewRecorder()

		result, ok := DecodeAndPrepare[validatingRequest](w, req, logger, ctx, "req-2")

		assert.True(t, ok)
		require.NotNil(t, result)
		assert.True(t, result.sanitized)
	})

	t.Run("plain validation error becomes 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{}`))
		w := httptest.NewRecorder()

		_, ok := DecodeAndPrepare[validatingRequest](w, req, logger, ctx, "req-2")

		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "holderName is required", decodeFailure(t, w).Message)
	})

	t.Run("domain validation error keeps its message", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"id":""}`))
		w := httptest.NewRecorder()

		_, ok := DecodeAndPrepare[domainRequest](w, req, logger, ctx, "req-3")

		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "id is required", decodeFailure(t, w).Message)
	})
}

func TestWriteError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"not found", dErrors.New(dErrors.CodeNotFound, "Credential not found"), http.StatusNotFound, "Credential not found"},
		{"timeout", dErrors.New(dErrors.CodeTimeout, ""), http.StatusGatewayTimeout, "timeout"},
		{"unavailable", dErrors.New(dErrors.CodeUnavailable, "down"), http.StatusServiceUnavailable, "down"},
		{"plain error", errors.New("db exploded"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tc.err)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.Equal(t, tc.msg, decodeFailure(t, w).Message)
		})
	}
}
