package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/benx421/subscription-checkout/internal/gateway"
	gatewaymocks "github.com/benx421/subscription-checkout/internal/gateway/mocks"
	"github.com/benx421/subscription-checkout/internal/models"
	notifiermocks "github.com/benx421/subscription-checkout/internal/notifier/mocks"
	"github.com/benx421/subscription-checkout/internal/repository"
	repomocks "github.com/benx421/subscription-checkout/internal/repository/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func seedPending(t *testing.T, store *repository.MemoryStore, createdAt time.Time, sessionID string) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:             uuid.New(),
		SubjectID:      "u1",
		ProductID:      "monthly",
		Plan:           "pro_monthly",
		AmountCents:    999,
		Currency:       "USD",
		Status:         models.OrderStatusPending,
		IdempotencyKey: uuid.NewString(),
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}
	if sessionID != "" {
		order.ExternalSessionID = &sessionID
	}
	require.NoError(t, store.CreateOrder(context.Background(), order))
	return order
}

func TestSweeper_SweepExpiredClaims(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	checkout := h.mustCheckout(t, "u1", "monthly")
	sweeper := NewSweeper(h.store, h.gateway, h.notifier, time.Hour, testLogger())

	deleted, err := sweeper.SweepExpiredClaims(ctx, h.clock.Now())
	require.NoError(t, err)
	assert.Zero(t, deleted, "claims inside their window are kept")

	deleted, err = sweeper.SweepExpiredClaims(ctx, h.clock.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, ok := h.store.Claim(checkout.Order.IdempotencyKey)
	assert.False(t, ok)

	order, err := h.store.GetByID(ctx, checkout.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, order.Status, "orders outlive their claims")
}

func TestSweeper_SettleStalePending(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	now := h.clock.Now()

	paid := h.mustCheckout(t, "u1", "monthly")
	_, _, err := h.simulated.CompleteSession(*paid.Order.ExternalSessionID)
	require.NoError(t, err)
	open := h.mustCheckout(t, "u2", "monthly")

	vanished := seedPending(t, h.store, now.Add(-2*time.Hour), "cs_gone")
	youngOrphan := seedPending(t, h.store, now.Add(-2*time.Hour), "")
	oldOrphan := seedPending(t, h.store, now.Add(-30*time.Hour), "")

	// Everything above counts as stale once the clock has moved past the threshold.
	later := now.Add(90 * time.Minute)
	sweeper := NewSweeper(h.store, h.gateway, h.notifier, time.Hour, testLogger()).WithClock(func() time.Time { return later })

	checked, resolved, err := sweeper.SettleStalePending(ctx, later)

	require.NoError(t, err)
	assert.Equal(t, 5, checked)
	assert.Equal(t, 3, resolved)

	expectStatus := func(id uuid.UUID, status models.OrderStatus) {
		t.Helper()
		order, err := h.store.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, status, order.Status)
	}
	expectStatus(paid.Order.ID, models.OrderStatusActive)
	expectStatus(open.Order.ID, models.OrderStatusPending)
	expectStatus(vanished.ID, models.OrderStatusIncomplete)
	expectStatus(youngOrphan.ID, models.OrderStatusPending)
	expectStatus(oldOrphan.ID, models.OrderStatusIncomplete)

	settled, err := h.store.GetByID(ctx, paid.Order.ID)
	require.NoError(t, err)
	assert.NotNil(t, settled.ExternalSubscriptionID)

	events := h.notifier.Events()
	require.Len(t, events, 1, "only terminal transitions are announced")
	assert.Equal(t, paid.Order.ID.String(), events[0].OrderID)
	assert.Empty(t, events[0].EventID)
}

func TestSweeper_Settlement(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	sessionID := "cs_1"
	withSession := &models.Order{ID: uuid.New(), Status: models.OrderStatusPending, ExternalSessionID: &sessionID, CreatedAt: now.Add(-2 * time.Hour)}

	tests := []struct {
		snapshot       *gateway.SessionSnapshot
		retrieveErr    error
		expectedStatus *models.OrderStatus
		name           string
		expectOK       bool
		expectErr      bool
	}{
		{
			name:           "expired session",
			snapshot:       &gateway.SessionSnapshot{ID: sessionID, Status: "expired"},
			expectedStatus: statusOf(models.OrderStatusExpired),
			expectOK:       true,
		},
		{
			name:           "paid session",
			snapshot:       &gateway.SessionSnapshot{ID: sessionID, Status: "complete", PaymentStatus: "paid", SubscriptionID: "sub_1"},
			expectedStatus: statusOf(models.OrderStatusActive),
			expectOK:       true,
		},
		{
			name:           "trial without payment",
			snapshot:       &gateway.SessionSnapshot{ID: sessionID, Status: "complete", PaymentStatus: "no_payment_required"},
			expectedStatus: statusOf(models.OrderStatusActive),
			expectOK:       true,
		},
		{
			name:     "complete but payment still processing",
			snapshot: &gateway.SessionSnapshot{ID: sessionID, Status: "complete", PaymentStatus: "unpaid"},
		},
		{
			name:     "still open",
			snapshot: &gateway.SessionSnapshot{ID: sessionID, Status: "open"},
		},
		{
			name:           "session unknown to gateway",
			retrieveErr:    &gateway.Error{Kind: gateway.Permanent, StatusCode: http.StatusNotFound},
			expectedStatus: statusOf(models.OrderStatusIncomplete),
			expectOK:       true,
		},
		{
			name:        "bad credentials leave orders alone",
			retrieveErr: &gateway.Error{Kind: gateway.Permanent, StatusCode: http.StatusUnauthorized},
			expectErr:   true,
		},
		{
			name:        "gateway unavailable",
			retrieveErr: &gateway.Error{Kind: gateway.Transient, StatusCode: http.StatusBadGateway},
			expectErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := gatewaymocks.NewMockClient(t)
			sweeper := NewSweeper(nil, gw, nil, time.Hour, testLogger())
			gw.On("RetrieveSession", mock.Anything, sessionID).Return(tt.snapshot, tt.retrieveErr)

			update, ok, err := sweeper.settlement(context.Background(), withSession, now)

			if tt.expectErr {
				assert.Error(t, err)
				assert.False(t, ok)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectOK, ok)
			assert.Equal(t, tt.expectedStatus, update.Status)
		})
	}
}

func TestSweeper_WebhookWinsRace(t *testing.T) {
	store := repomocks.NewMockOrderRepository(t)
	gw := gatewaymocks.NewMockClient(t)
	n := notifiermocks.NewMockNotifier(t)
	sweeper := NewSweeper(store, gw, n, time.Hour, testLogger())
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	sessionID := "cs_1"
	order := &models.Order{ID: uuid.New(), Status: models.OrderStatusPending, ExternalSessionID: &sessionID, CreatedAt: now.Add(-2 * time.Hour)}
	active := models.OrderStatusActive

	store.On("ListStalePending", mock.Anything, now.Add(-time.Hour), stalePendingBatch).Return([]*models.Order{order}, nil)
	gw.On("RetrieveSession", mock.Anything, sessionID).Return(&gateway.SessionSnapshot{ID: sessionID, Status: "complete", PaymentStatus: "paid"}, nil)
	store.On("UpdateOrder", mock.Anything, order.ID, mock.AnythingOfType("models.OrderUpdate")).
		Return(nil, &models.TransitionError{From: models.OrderStatusActive, To: &active})

	checked, resolved, err := sweeper.SettleStalePending(context.Background(), now)

	require.NoError(t, err)
	assert.Equal(t, 1, checked)
	assert.Zero(t, resolved)
}

func TestSweeper_Sweep(t *testing.T) {
	store := repomocks.NewMockOrderRepository(t)
	gw := gatewaymocks.NewMockClient(t)
	n := notifiermocks.NewMockNotifier(t)
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	sweeper := NewSweeper(store, gw, n, time.Hour, testLogger()).WithClock(func() time.Time { return now })

	store.On("DeleteExpiredClaims", mock.Anything, now).Return(int64(7), nil).Once()
	store.On("ListStalePending", mock.Anything, now.Add(-time.Hour), stalePendingBatch).Return([]*models.Order{}, nil).Once()

	report, err := sweeper.Sweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(7), report.ClaimsDeleted)
	assert.Zero(t, report.PendingChecked)

	dbErr := errors.New("database is shutting down")
	store.On("DeleteExpiredClaims", mock.Anything, now).Return(int64(0), dbErr).Once()

	_, err = sweeper.Sweep(context.Background())
	assert.ErrorIs(t, err, dbErr)
}

func TestSweeper_RunStopsWithContext(t *testing.T) {
	h := newHarness(t)
	sweeper := NewSweeper(h.store, h.gateway, h.notifier, time.Hour, testLogger()).
		WithClock(func() time.Time { return h.clock.Now().Add(time.Hour) })
	h.mustCheckout(t, "u1", "monthly")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		_, ok := h.store.Claim(h.deriver.Derive("u1", "monthly", h.clock.Now()).Value)
		return !ok
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}
