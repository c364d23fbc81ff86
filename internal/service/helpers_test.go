package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benx421/subscription-checkout/internal/gateway"
	"github.com/benx421/subscription-checkout/internal/idempotency"
	"github.com/benx421/subscription-checkout/internal/models"
	"github.com/benx421/subscription-checkout/internal/notifier"
	"github.com/benx421/subscription-checkout/internal/repository"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "whsec_test_secret"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCatalog() *Catalog {
	return NewCatalog([]models.Product{
		{ID: "monthly", Plan: "pro_monthly", AmountCents: 999, Currency: "USD", Interval: "month"},
		{ID: "yearly", Plan: "pro_yearly", AmountCents: 9999, Currency: "USD", Interval: "year"},
	})
}

// testClock is a manually advanced time source. It starts 10s into a 60s bucket.
type testClock struct {
	now time.Time
	mu  sync.Mutex
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 2, 12, 0, 10, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// countingGateway counts session creations on top of another client
type countingGateway struct {
	GatewayClient
	creates atomic.Int32
}

func (g *countingGateway) CreateCheckoutSession(ctx context.Context, req gateway.SessionRequest) (*gateway.Session, error) {
	g.creates.Add(1)
	return g.GatewayClient.CreateCheckoutSession(ctx, req)
}

// recordingNotifier keeps every event it is handed
type recordingNotifier struct {
	events []notifier.OrderEvent
	mu     sync.Mutex
}

func (n *recordingNotifier) Notify(_ context.Context, event notifier.OrderEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) Events() []notifier.OrderEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notifier.OrderEvent(nil), n.events...)
}

// harness wires the real services against the memory store and simulated gateway
type harness struct {
	store      *repository.MemoryStore
	simulated  *gateway.SimulatedClient
	gateway    *countingGateway
	notifier   *recordingNotifier
	clock      *testClock
	deriver    *idempotency.Deriver
	checkout   *CheckoutService
	reconciler *ReconcilerService
	query      *QueryService
}

func newHarness(t *testing.T) *harness {
	return newHarnessWithFaults(t, gateway.FaultConfig{})
}

func newHarnessWithFaults(t *testing.T, faults gateway.FaultConfig) *harness {
	t.Helper()

	clock := newTestClock()
	store := repository.NewMemoryStore().WithClock(clock.Now)
	simulated := gateway.NewSimulatedClient(testWebhookSecret, faults, testLogger())
	gw := &countingGateway{GatewayClient: simulated}
	rec := &recordingNotifier{}
	deriver := idempotency.NewDeriver(60 * time.Second)

	checkout := NewCheckoutService(
		store,
		gw,
		testCatalog(),
		deriver,
		RedirectURLs{SuccessURL: "https://app.test/success", CancelURL: "https://app.test/cancel"},
		5*time.Second,
		testLogger(),
	).WithClock(clock.Now)

	reconciler := NewReconcilerService(store, simulated, rec, testLogger())
	reconciler.now = clock.Now

	return &harness{
		store:      store,
		simulated:  simulated,
		gateway:    gw,
		notifier:   rec,
		clock:      clock,
		deriver:    deriver,
		checkout:   checkout,
		reconciler: reconciler,
		query:      NewQueryService(store).WithClock(clock.Now),
	}
}

func (h *harness) mustCheckout(t *testing.T, subjectID, productID string) *CheckoutResult {
	t.Helper()
	result, err := h.checkout.CreateCheckout(context.Background(), CheckoutRequest{
		SubjectID: subjectID,
		ProductID: productID,
	})
	require.NoError(t, err)
	return result
}

// complete pays the order's session and delivers the webhook
func (h *harness) complete(t *testing.T, order *models.Order) (payload []byte, signature string) {
	t.Helper()
	require.True(t, order.HasSession())

	payload, signature, err := h.simulated.CompleteSession(*order.ExternalSessionID)
	require.NoError(t, err)

	result, err := h.reconciler.HandleEvent(context.Background(), payload, signature)
	require.NoError(t, err)
	require.Equal(t, ReconcileProcessed, result.Status)
	return payload, signature
}

func serviceCode(t *testing.T, err error) *ServiceError {
	t.Helper()
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	return svcErr
}

func signEvent(t *testing.T, eventID, eventType string, object any) (payload []byte, signature string) {
	t.Helper()
	payload, signature, err := gateway.SignEvent(testWebhookSecret, eventID, eventType, object, time.Now())
	require.NoError(t, err)
	return payload, signature
}
