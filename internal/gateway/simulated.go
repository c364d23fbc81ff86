package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82/webhook"
)

const simulatedCheckoutBaseURL = "https://checkout.simulated.local/pay/"

// DeclinedEmailDomain makes the simulated gateway reject a session permanently
const DeclinedEmailDomain = "@decline.test"

// SimulatedClient is an in-process payment gateway for local runs and tests.
// It signs webhook events with the same scheme it verifies.
type SimulatedClient struct {
	sessions map[string]*SessionSnapshot
	logger   *slog.Logger
	signatureVerifier
	faults FaultConfig
	mu     sync.Mutex
}

// NewSimulatedClient creates a SimulatedClient
func NewSimulatedClient(webhookSecret string, faults FaultConfig, logger *slog.Logger) *SimulatedClient {
	return &SimulatedClient{
		sessions:          make(map[string]*SessionSnapshot),
		logger:            logger,
		signatureVerifier: signatureVerifier{secret: webhookSecret},
		faults:            faults,
	}
}

// CreateCheckoutSession opens a simulated session, subject to injected latency and failures
func (c *SimulatedClient) CreateCheckoutSession(ctx context.Context, req SessionRequest) (*Session, error) {
	const op = "create checkout session"

	if err := c.faults.injectLatency(ctx); err != nil {
		return nil, &Error{Op: op, Err: err, Kind: Transient}
	}
	if c.faults.shouldFail() {
		c.logger.Debug("injecting gateway failure", "order_id", req.OrderID)
		return nil, &Error{Op: op, Message: "simulated provider outage", Kind: Transient, StatusCode: http.StatusServiceUnavailable}
	}

	if req.AmountCents <= 0 || req.Currency == "" {
		return nil, &Error{Op: op, Message: "amount and currency are required", Kind: Permanent, StatusCode: http.StatusBadRequest}
	}
	if strings.HasSuffix(strings.ToLower(req.CustomerEmail), DeclinedEmailDomain) {
		return nil, &Error{Op: op, Message: "customer cannot be charged", Kind: Permanent, StatusCode: http.StatusPaymentRequired}
	}

	id := "cs_sim_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	customerID := "cus_sim_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14]

	c.mu.Lock()
	c.sessions[id] = &SessionSnapshot{
		ID:            id,
		Status:        "open",
		PaymentStatus: PaymentStatusUnpaid,
		CustomerID:    customerID,
		OrderID:       req.OrderID.String(),
	}
	c.mu.Unlock()

	return &Session{ID: id, URL: simulatedCheckoutBaseURL + id, CustomerID: customerID}, nil
}

// RetrieveSession returns the simulated session state
func (c *SimulatedClient) RetrieveSession(ctx context.Context, sessionID string) (*SessionSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Op: "retrieve checkout session", Err: err, Kind: Transient}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.sessions[sessionID]
	if !ok {
		return nil, &Error{Op: "retrieve checkout session", Message: "no such session", Kind: Permanent, StatusCode: http.StatusNotFound}
	}
	out := *sess
	return &out, nil
}

// CompleteSession marks a session paid and returns the signed checkout.session.completed webhook
func (c *SimulatedClient) CompleteSession(sessionID string) (payload []byte, signature string, err error) {
	c.mu.Lock()
	sess, ok := c.sessions[sessionID]
	if !ok {
		c.mu.Unlock()
		return nil, "", fmt.Errorf("session %s: %w", sessionID, ErrInvalidPayload)
	}
	sess.Status = "complete"
	sess.PaymentStatus = PaymentStatusPaid
	if sess.SubscriptionID == "" {
		sess.SubscriptionID = "sub_sim_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14]
	}
	snapshot := *sess
	c.mu.Unlock()

	return c.SignedEvent(EventCheckoutCompleted, map[string]any{
		"id":                  snapshot.ID,
		"object":              "checkout.session",
		"customer":            snapshot.CustomerID,
		"subscription":        snapshot.SubscriptionID,
		"payment_status":      snapshot.PaymentStatus,
		"client_reference_id": snapshot.OrderID,
		"metadata":            map[string]string{MetadataOrderID: snapshot.OrderID},
	})
}

// SignedEvent builds a webhook body with a fresh event id and signs it
func (c *SimulatedClient) SignedEvent(eventType string, object any) (payload []byte, signature string, err error) {
	return SignEvent(c.secret, "evt_sim_"+strings.ReplaceAll(uuid.NewString(), "-", ""), eventType, object, time.Now())
}

// SignEvent renders an event envelope and signs it with secret at the given time
func SignEvent(secret, eventID, eventType string, object any, at time.Time) (payload []byte, signature string, err error) {
	payload, err = json.Marshal(map[string]any{
		"id":      eventID,
		"object":  "event",
		"type":    eventType,
		"created": at.Unix(),
		"data":    map[string]any{"object": object},
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode event: %w", err)
	}

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: at,
	})
	return signed.Payload, signed.Header, nil
}

var (
	_ Client        = (*SimulatedClient)(nil)
	_ EventVerifier = (*SimulatedClient)(nil)
)
