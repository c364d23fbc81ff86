package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/benx421/subscription-checkout/internal/models"
	"github.com/benx421/subscription-checkout/internal/service"
	"github.com/benx421/subscription-checkout/internal/service/mocks"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCatalog() *service.Catalog {
	return service.NewCatalog([]models.Product{
		{ID: "monthly", Plan: "pro_monthly", AmountCents: 999, Currency: "USD", Interval: "month"},
		{ID: "yearly", Plan: "pro_yearly", AmountCents: 9999, Currency: "USD", Interval: "year"},
	})
}

type mockDeps struct {
	checkout *mocks.MockCheckoutCreator
	events   *mocks.MockEventHandler
	orders   *mocks.MockOrderQuerier
	health   *mocks.MockHealthChecker
}

func newMockRouter(t *testing.T) (http.Handler, *mockDeps) {
	t.Helper()
	deps := &mockDeps{
		checkout: mocks.NewMockCheckoutCreator(t),
		events:   mocks.NewMockEventHandler(t),
		orders:   mocks.NewMockOrderQuerier(t),
		health:   mocks.NewMockHealthChecker(t),
	}
	handler := NewHandler(deps.checkout, deps.events, deps.orders, testCatalog(), deps.health, testLogger())

	router, err := NewRouter(handler, testLogger())
	require.NoError(t, err)
	return router, deps
}

func doJSON(t *testing.T, router http.Handler, method, target string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		case []byte:
			reader = bytes.NewReader(b)
		default:
			data, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(data)
		}
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}
