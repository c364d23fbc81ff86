// Package middleware provides HTTP middleware components for the checkout API.
package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/benx421/subscription-checkout/internal/api"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	maxClientKeyLength   = 255
)

// idempotentPaths defines which paths accept a client idempotency key
var idempotentPaths = []string{
	"/api/v1/checkouts",
}

type clientKeyContextKey struct{}

// ClientIdempotencyKey reads the optional Idempotency-Key header on checkout
// requests and stores it in the request context. The key is advisory: the
// service derives its own key and never deduplicates on this one.
func ClientIdempotencyKey(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !requiresIdempotency(r) {
				next.ServeHTTP(w, r)
				return
			}

			key := strings.TrimSpace(r.Header.Get(idempotencyKeyHeader))
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			if len(key) > maxClientKeyLength {
				logger.Debug("rejected oversized idempotency key",
					"path", r.URL.Path,
					"length", len(key),
				)
				writeError(w, http.StatusBadRequest, api.ErrorCodeInvalidRequest,
					fmt.Sprintf("%s header must be at most %d characters", idempotencyKeyHeader, maxClientKeyLength))
				return
			}

			ctx := context.WithValue(r.Context(), clientKeyContextKey{}, key)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientKeyFrom returns the client idempotency key stored by ClientIdempotencyKey
func ClientKeyFrom(ctx context.Context) string {
	key, _ := ctx.Value(clientKeyContextKey{}).(string)
	return key
}

func requiresIdempotency(r *http.Request) bool {
	if r.Method != http.MethodPost {
		return false
	}

	path := strings.TrimSuffix(r.URL.Path, "/")
	for _, p := range idempotentPaths {
		if path == p {
			return true
		}
	}
	return false
}

func writeError(w http.ResponseWriter, status int, code api.ErrorCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // Best effort response writing
	json.NewEncoder(w).Encode(api.Error{Error: code, Message: message})
}
