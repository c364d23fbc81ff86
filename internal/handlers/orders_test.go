package handlers

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/benx421/subscription-checkout/internal/api"
	"github.com/benx421/subscription-checkout/internal/models"
	"github.com/benx421/subscription-checkout/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGetOrder(t *testing.T) {
	router, deps := newMockRouter(t)
	order := pendingOrder()
	deps.orders.On("GetOrder", mock.Anything, order.ID).Return(order, nil)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/orders/"+order.ID.String(), nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decode[api.Order](t, rec)
	assert.Equal(t, order.ID, resp.OrderID)
	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, int64(999), resp.AmountCents)
	require.NotNil(t, resp.CheckoutURL)
	assert.Equal(t, *order.CheckoutURL, *resp.CheckoutURL)
}

func TestGetOrder_Errors(t *testing.T) {
	tests := []struct {
		setup          func(deps *mockDeps, id uuid.UUID)
		name           string
		path           string
		expectedCode   api.ErrorCode
		expectedStatus int
	}{
		{
			name:           "malformed id",
			path:           "/api/v1/orders/not-a-uuid",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   api.ErrorCodeInvalidRequest,
		},
		{
			name: "not found",
			setup: func(deps *mockDeps, id uuid.UUID) {
				deps.orders.On("GetOrder", mock.Anything, id).
					Return(nil, &service.ServiceError{Code: service.ErrCodeOrderNotFound, Message: "order not found"})
			},
			expectedStatus: http.StatusNotFound,
			expectedCode:   api.ErrorCodeNotFound,
		},
		{
			name: "store unavailable",
			setup: func(deps *mockDeps, id uuid.UUID) {
				deps.orders.On("GetOrder", mock.Anything, id).
					Return(nil, &service.ServiceError{Code: service.ErrCodeStoreUnavailable, Message: "failed to load order", Retryable: true})
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedCode:   api.ErrorCodeServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, deps := newMockRouter(t)
			id := uuid.New()
			path := tt.path
			if path == "" {
				path = "/api/v1/orders/" + id.String()
			}
			if tt.setup != nil {
				tt.setup(deps, id)
			}

			rec := doJSON(t, router, http.MethodGet, path, nil, nil)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, tt.expectedCode, decode[api.Error](t, rec).Error)
		})
	}
}

func TestGetSubjectOrders(t *testing.T) {
	router, deps := newMockRouter(t)
	periodEnd := time.Now().Add(30 * 24 * time.Hour).UTC().Truncate(time.Second)
	active := pendingOrder()
	active.Status = models.OrderStatusActive
	active.ExpiresAt = &periodEnd
	older := pendingOrder()
	older.Status = models.OrderStatusExpired

	deps.orders.On("GetSubjectOrders", mock.Anything, "user@example.com", 5).Return(&service.SubjectOrders{
		SubjectID:   "user@example.com",
		HasActive:   true,
		ActiveOrder: active,
		Orders:      []*models.Order{active, older},
	}, nil)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/subjects/user@example.com/orders?limit=5", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decode[api.SubjectOrders](t, rec)
	assert.Equal(t, "user@example.com", resp.SubjectID)
	assert.True(t, resp.HasActiveSubscription)
	require.NotNil(t, resp.ActiveOrder)
	assert.Equal(t, active.ID, resp.ActiveOrder.OrderID)
	require.NotNil(t, resp.ActiveOrder.ExpiresAt)
	assert.True(t, periodEnd.Equal(*resp.ActiveOrder.ExpiresAt))
	require.Len(t, resp.Orders, 2)
	assert.Equal(t, "expired", resp.Orders[1].Status)
}

func TestGetSubjectOrders_DefaultLimitAndEmptyHistory(t *testing.T) {
	router, deps := newMockRouter(t)
	deps.orders.On("GetSubjectOrders", mock.Anything, "u1", 0).
		Return(&service.SubjectOrders{SubjectID: "u1"}, nil)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/subjects/u1/orders", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decode[api.SubjectOrders](t, rec)
	assert.False(t, resp.HasActiveSubscription)
	assert.Nil(t, resp.ActiveOrder)
	assert.NotNil(t, resp.Orders, "an empty history renders as []")
	assert.Contains(t, rec.Body.String(), `"orders":[]`)
}

func TestGetSubjectOrders_Errors(t *testing.T) {
	t.Run("limit out of range", func(t *testing.T) {
		router, deps := newMockRouter(t)

		rec := doJSON(t, router, http.MethodGet, "/api/v1/subjects/u1/orders?limit=1000", nil, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		deps.orders.AssertNotCalled(t, "GetSubjectOrders", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("store unavailable", func(t *testing.T) {
		router, deps := newMockRouter(t)
		deps.orders.On("GetSubjectOrders", mock.Anything, "u1", 0).Return(nil, fmt.Errorf("query: %w",
			&service.ServiceError{Code: service.ErrCodeStoreUnavailable, Message: "failed to list orders", Retryable: true}))

		rec := doJSON(t, router, http.MethodGet, "/api/v1/subjects/u1/orders", nil, nil)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestListProducts(t *testing.T) {
	router, _ := newMockRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/products", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decode[api.ProductList](t, rec)
	require.Len(t, resp.Products, 2)
	assert.Equal(t, "monthly", resp.Products[0].ID)
	assert.Equal(t, int64(999), resp.Products[0].AmountCents)
	assert.Equal(t, "year", resp.Products[1].Interval)
}

func TestGetSubjectOrder(t *testing.T) {
	tests := []struct {
		setup          func(deps *mockDeps, id uuid.UUID)
		name           string
		path           string
		expectedCode   api.ErrorCode
		expectedStatus int
	}{
		{
			name: "own order",
			setup: func(deps *mockDeps, id uuid.UUID) {
				order := pendingOrder()
				order.ID = id
				deps.orders.On("GetSubjectOrder", mock.Anything, "u1", id).Return(order, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "another subject's order",
			setup: func(deps *mockDeps, id uuid.UUID) {
				deps.orders.On("GetSubjectOrder", mock.Anything, "u1", id).
					Return(nil, &service.ServiceError{Code: service.ErrCodeOrderNotFound, Message: "order not found"})
			},
			expectedStatus: http.StatusNotFound,
			expectedCode:   api.ErrorCodeNotFound,
		},
		{
			name:           "malformed id",
			path:           "/api/v1/subjects/u1/orders/not-a-uuid",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   api.ErrorCodeInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, deps := newMockRouter(t)
			id := uuid.New()
			path := tt.path
			if path == "" {
				path = "/api/v1/subjects/u1/orders/" + id.String()
			}
			if tt.setup != nil {
				tt.setup(deps, id)
			}

			rec := doJSON(t, router, http.MethodGet, path, nil, nil)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decode[api.Error](t, rec).Error)
				return
			}
			assert.Equal(t, id, decode[api.Order](t, rec).OrderID)
		})
	}
}
