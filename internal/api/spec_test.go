package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSwagger(t *testing.T) {
	doc, err := GetSwagger()
	require.NoError(t, err)

	assert.Equal(t, "Subscription Checkout API", doc.Info.Title)
	for _, path := range []string{
		"/health",
		"/api/v1/products",
		"/api/v1/checkouts",
		"/api/v1/webhooks/gateway",
		"/api/v1/orders/{orderId}",
		"/api/v1/subjects/{subjectId}/orders",
		"/api/v1/subjects/{subjectId}/orders/{orderId}",
	} {
		assert.NotNil(t, doc.Paths.Find(path), "missing path %s", path)
	}

	again, err := GetSwagger()
	require.NoError(t, err)
	again.Servers = nil
	assert.NotEmpty(t, doc.Servers, "each call returns an independent copy")
}

func TestDocsRoutes(t *testing.T) {
	r := chi.NewRouter()
	RegisterDocsRoutes(r)

	tests := []struct {
		name           string
		path           string
		expectedType   string
		expectedStatus int
	}{
		{name: "root redirects", path: "/", expectedStatus: http.StatusMovedPermanently},
		{name: "swagger ui", path: "/docs", expectedStatus: http.StatusOK, expectedType: "text/html; charset=utf-8"},
		{name: "openapi document", path: "/docs/openapi", expectedStatus: http.StatusOK, expectedType: "application/json"},
		{name: "openapi source", path: "/docs/openapi.yaml", expectedStatus: http.StatusOK, expectedType: "application/yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedType != "" {
				assert.Equal(t, tt.expectedType, rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestOpenAPIDocumentIsJSON(t *testing.T) {
	r := chi.NewRouter()
	RegisterDocsRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/docs/openapi", nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "3.0.3", body["openapi"])
}
