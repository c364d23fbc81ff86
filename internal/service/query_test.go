package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benx421/subscription-checkout/internal/models"
	repomocks "github.com/benx421/subscription-checkout/internal/repository/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGetSubjectOrders(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first := h.mustCheckout(t, "u1", "monthly")
	h.complete(t, first.Order)
	h.clock.Advance(2 * time.Minute)
	second := h.mustCheckout(t, "u1", "yearly")
	h.mustCheckout(t, "u2", "monthly")

	result, err := h.query.GetSubjectOrders(ctx, "u1", 0)

	require.NoError(t, err)
	assert.Equal(t, "u1", result.SubjectID)
	assert.True(t, result.HasActive)
	require.NotNil(t, result.ActiveOrder)
	assert.Equal(t, first.Order.ID, result.ActiveOrder.ID)
	require.Len(t, result.Orders, 2)
	assert.Equal(t, second.Order.ID, result.Orders[0].ID, "newest first")
	assert.Equal(t, first.Order.ID, result.Orders[1].ID)

	limited, err := h.query.GetSubjectOrders(ctx, "u1", 1)
	require.NoError(t, err)
	assert.Len(t, limited.Orders, 1)
}

func TestGetSubjectOrders_NoActiveOrder(t *testing.T) {
	h := newHarness(t)
	h.mustCheckout(t, "u1", "monthly")

	result, err := h.query.GetSubjectOrders(context.Background(), "u1", 10)

	require.NoError(t, err)
	assert.False(t, result.HasActive)
	assert.Nil(t, result.ActiveOrder)
	assert.Len(t, result.Orders, 1)
}

func TestGetSubjectOrders_LapsedSubscription(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	checkout := h.mustCheckout(t, "u1", "monthly")
	h.complete(t, checkout.Order)
	periodEnd := h.clock.Now().Add(30 * 24 * time.Hour)
	_, err := h.store.UpdateOrder(ctx, checkout.Order.ID, models.OrderUpdate{ExpiresAt: &periodEnd})
	require.NoError(t, err)

	result, err := h.query.GetSubjectOrders(ctx, "u1", 10)
	require.NoError(t, err)
	assert.True(t, result.HasActive)

	h.clock.Advance(31 * 24 * time.Hour)

	result, err = h.query.GetSubjectOrders(ctx, "u1", 10)
	require.NoError(t, err)
	assert.False(t, result.HasActive, "an active order past its period end grants nothing")
	assert.Len(t, result.Orders, 1)
}

func TestGetSubjectOrders_Errors(t *testing.T) {
	dbErr := errors.New("too many connections")

	tests := []struct {
		setup        func(store *repomocks.MockOrderRepository)
		name         string
		subjectID    string
		expectedCode string
		limit        int
	}{
		{
			name:         "empty subject",
			subjectID:    "",
			limit:        10,
			expectedCode: ErrCodeInvalidRequest,
		},
		{
			name:         "limit above maximum",
			subjectID:    "u1",
			limit:        MaxHistoryLimit + 1,
			expectedCode: ErrCodeInvalidRequest,
		},
		{
			name:         "negative limit",
			subjectID:    "u1",
			limit:        -1,
			expectedCode: ErrCodeInvalidRequest,
		},
		{
			name:      "active lookup fails",
			subjectID: "u1",
			limit:     10,
			setup: func(store *repomocks.MockOrderRepository) {
				store.On("GetActiveBySubject", mock.Anything, "u1", mock.AnythingOfType("time.Time")).Return(nil, dbErr)
			},
			expectedCode: ErrCodeStoreUnavailable,
		},
		{
			name:      "history lookup fails",
			subjectID: "u1",
			limit:     10,
			setup: func(store *repomocks.MockOrderRepository) {
				store.On("GetActiveBySubject", mock.Anything, "u1", mock.AnythingOfType("time.Time")).Return(nil, models.ErrNotFound)
				store.On("ListBySubject", mock.Anything, "u1", 10).Return(nil, dbErr)
			},
			expectedCode: ErrCodeStoreUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := repomocks.NewMockOrderRepository(t)
			if tt.setup != nil {
				tt.setup(store)
			}
			svc := NewQueryService(store)

			result, err := svc.GetSubjectOrders(context.Background(), tt.subjectID, tt.limit)

			assert.Nil(t, result)
			svcErr := serviceCode(t, err)
			assert.Equal(t, tt.expectedCode, svcErr.Code)
		})
	}
}

func TestGetOrder(t *testing.T) {
	h := newHarness(t)
	checkout := h.mustCheckout(t, "u1", "monthly")

	order, err := h.query.GetOrder(context.Background(), checkout.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, checkout.Order.ID, order.ID)

	_, err = h.query.GetOrder(context.Background(), uuid.New())
	assert.Equal(t, ErrCodeOrderNotFound, serviceCode(t, err).Code)
}

func TestGetSubjectOrder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	checkout := h.mustCheckout(t, "u1", "monthly")

	tests := []struct {
		name         string
		subjectID    string
		id           uuid.UUID
		expectedCode string
	}{
		{name: "own order", subjectID: "u1", id: checkout.Order.ID},
		{name: "another subject's order", subjectID: "u2", id: checkout.Order.ID, expectedCode: ErrCodeOrderNotFound},
		{name: "unknown order", subjectID: "u1", id: uuid.New(), expectedCode: ErrCodeOrderNotFound},
		{name: "blank subject", subjectID: "", id: checkout.Order.ID, expectedCode: ErrCodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, err := h.query.GetSubjectOrder(ctx, tt.subjectID, tt.id)

			if tt.expectedCode != "" {
				assert.Nil(t, order)
				assert.Equal(t, tt.expectedCode, serviceCode(t, err).Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, checkout.Order.ID, order.ID)
		})
	}
}

func TestGetOrder_StoreUnavailable(t *testing.T) {
	store := repomocks.NewMockOrderRepository(t)
	id := uuid.New()
	store.On("GetByID", mock.Anything, id).Return(nil, errors.New("i/o timeout"))

	_, err := NewQueryService(store).GetOrder(context.Background(), id)

	svcErr := serviceCode(t, err)
	assert.Equal(t, ErrCodeStoreUnavailable, svcErr.Code)
	assert.True(t, svcErr.Retryable)
}
