package gateway

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

// StripeClient talks to Stripe Checkout in subscription mode
type StripeClient struct {
	api *client.API
	signatureVerifier
	timeout time.Duration
}

// NewStripeClient creates a StripeClient. Network retries are disabled so a
// failed call is surfaced to the caller exactly once.
func NewStripeClient(secretKey, webhookSecret string, timeout time.Duration) *StripeClient {
	httpClient := &http.Client{Timeout: timeout}
	backendConfig := func() *stripe.BackendConfig {
		return &stripe.BackendConfig{
			HTTPClient:        httpClient,
			MaxNetworkRetries: stripe.Int64(0),
		}
	}

	api := &client.API{}
	api.Init(secretKey, &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, backendConfig()),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, backendConfig()),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, backendConfig()),
	})

	return &StripeClient{
		api:               api,
		signatureVerifier: signatureVerifier{secret: webhookSecret},
		timeout:           timeout,
	}
}

// CreateCheckoutSession opens a hosted checkout session for the order
func (c *StripeClient) CreateCheckoutSession(ctx context.Context, req SessionRequest) (*Session, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.OrderID.String()),
		LineItems:         []*stripe.CheckoutSessionLineItemParams{lineItem(req)},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{
				MetadataOrderID:   req.OrderID.String(),
				MetadataSubjectID: req.SubjectID,
			},
		},
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	params.AddMetadata(MetadataOrderID, req.OrderID.String())
	params.AddMetadata(MetadataSubjectID, req.SubjectID)
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	sess, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, classifyStripeError("create checkout session", err)
	}

	out := &Session{ID: sess.ID, URL: sess.URL}
	if sess.Customer != nil {
		out.CustomerID = sess.Customer.ID
	}
	return out, nil
}

func lineItem(req SessionRequest) *stripe.CheckoutSessionLineItemParams {
	if req.PriceID != "" {
		return &stripe.CheckoutSessionLineItemParams{
			Price:    stripe.String(req.PriceID),
			Quantity: stripe.Int64(1),
		}
	}

	interval := req.Interval
	if interval == "" {
		interval = "month"
	}
	return &stripe.CheckoutSessionLineItemParams{
		Quantity: stripe.Int64(1),
		PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency:   stripe.String(strings.ToLower(req.Currency)),
			UnitAmount: stripe.Int64(req.AmountCents),
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name: stripe.String(req.Plan),
			},
			Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
				Interval: stripe.String(interval),
			},
		},
	}
}

// RetrieveSession fetches the current state of a checkout session
func (c *StripeClient) RetrieveSession(ctx context.Context, sessionID string) (*SessionSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := c.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, classifyStripeError("retrieve checkout session", err)
	}

	snapshot := &SessionSnapshot{
		ID:            sess.ID,
		Status:        string(sess.Status),
		PaymentStatus: string(sess.PaymentStatus),
		OrderID:       sess.Metadata[MetadataOrderID],
	}
	if sess.Customer != nil {
		snapshot.CustomerID = sess.Customer.ID
	}
	if sess.Subscription != nil {
		snapshot.SubscriptionID = sess.Subscription.ID
	}
	return snapshot, nil
}

func classifyStripeError(op string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return &Error{
			Op:         op,
			Err:        err,
			Message:    stripeErr.Msg,
			StatusCode: stripeErr.HTTPStatusCode,
			Kind:       classifyStatus(stripeErr.HTTPStatusCode),
		}
	}
	return &Error{Op: op, Err: err, Kind: Transient}
}

var (
	_ Client        = (*StripeClient)(nil)
	_ EventVerifier = (*StripeClient)(nil)
)
