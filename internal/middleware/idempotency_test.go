package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/benx421/subscription-checkout/internal/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testHandler(status int, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body)) //nolint:errcheck // test helper
	})
}

// keyRecorder captures the client key the handler sees
func keyRecorder(seen *string, called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		*seen = ClientKeyFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestClientIdempotencyKey(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		path           string
		key            string
		expectedKey    string
		expectedStatus int
		expectCalled   bool
	}{
		{
			name:           "key stored for checkout",
			method:         http.MethodPost,
			path:           "/api/v1/checkouts",
			key:            "client-key-1",
			expectedKey:    "client-key-1",
			expectedStatus: http.StatusOK,
			expectCalled:   true,
		},
		{
			name:           "trailing slash still matches",
			method:         http.MethodPost,
			path:           "/api/v1/checkouts/",
			key:            "client-key-1",
			expectedKey:    "client-key-1",
			expectedStatus: http.StatusOK,
			expectCalled:   true,
		},
		{
			name:           "surrounding whitespace trimmed",
			method:         http.MethodPost,
			path:           "/api/v1/checkouts",
			key:            "  padded  ",
			expectedKey:    "padded",
			expectedStatus: http.StatusOK,
			expectCalled:   true,
		},
		{
			name:           "missing key passes through",
			method:         http.MethodPost,
			path:           "/api/v1/checkouts",
			expectedStatus: http.StatusOK,
			expectCalled:   true,
		},
		{
			name:           "GET requests ignore the header",
			method:         http.MethodGet,
			path:           "/api/v1/checkouts",
			key:            "client-key-1",
			expectedStatus: http.StatusOK,
			expectCalled:   true,
		},
		{
			name:           "other paths ignore the header",
			method:         http.MethodPost,
			path:           "/api/v1/webhooks/gateway",
			key:            strings.Repeat("k", 300),
			expectedStatus: http.StatusOK,
			expectCalled:   true,
		},
		{
			name:           "key at maximum length accepted",
			method:         http.MethodPost,
			path:           "/api/v1/checkouts",
			key:            strings.Repeat("k", 255),
			expectedKey:    strings.Repeat("k", 255),
			expectedStatus: http.StatusOK,
			expectCalled:   true,
		},
		{
			name:           "oversized key rejected",
			method:         http.MethodPost,
			path:           "/api/v1/checkouts",
			key:            strings.Repeat("k", 256),
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			var called bool
			handler := ClientIdempotencyKey(testLogger())(keyRecorder(&seen, &called))

			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.key != "" {
				req.Header.Set("Idempotency-Key", tt.key)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, tt.expectCalled, called)
			assert.Equal(t, tt.expectedKey, seen)
		})
	}
}

func TestClientIdempotencyKey_RejectionBody(t *testing.T) {
	handlerCalled := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkouts", nil)
	req.Header.Set("Idempotency-Key", strings.Repeat("x", 1000))
	rec := httptest.NewRecorder()

	ClientIdempotencyKey(testLogger())(handler).ServeHTTP(rec, req)

	assert.False(t, handlerCalled, "handler should not run for an invalid key")
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body api.Error
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, api.ErrorCodeInvalidRequest, body.Error)
	assert.Contains(t, body.Message, "Idempotency-Key")
}

func TestClientKeyFrom_EmptyContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, ClientKeyFrom(req.Context()))
}
