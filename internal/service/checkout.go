package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/benx421/subscription-checkout/internal/gateway"
	"github.com/benx421/subscription-checkout/internal/idempotency"
	"github.com/benx421/subscription-checkout/internal/models"
	"github.com/google/uuid"
)

// inProgressRetryAfter is the hint given while another request is still opening the session
const inProgressRetryAfter = 2 * time.Second

// sessionPollInterval is how often a request that lost the claim re-reads the order
const sessionPollInterval = 25 * time.Millisecond

// failureRecordTimeout bounds the store write that records a failed gateway call
const failureRecordTimeout = 5 * time.Second

// CheckoutRequest asks for a checkout session for one subject and product
type CheckoutRequest struct {
	SubjectID     string `json:"subject_id" validate:"required,max=255,printascii"`
	ProductID     string `json:"product_id" validate:"required,max=64"`
	PaymentMethod string `json:"payment_method" validate:"omitempty,oneof=card link"`
	CustomerEmail string `json:"customer_email" validate:"omitempty,max=254,email"`
	SuccessURL    string `json:"success_url" validate:"omitempty,max=2048,http_url"`
	CancelURL     string `json:"cancel_url" validate:"omitempty,max=2048,http_url"`
	// ClientIdempotencyKey is recorded on the order but never used to deduplicate.
	ClientIdempotencyKey string `json:"-" validate:"omitempty,max=255"`
}

func (r CheckoutRequest) normalized() CheckoutRequest {
	r.SubjectID = strings.TrimSpace(r.SubjectID)
	r.ProductID = strings.TrimSpace(r.ProductID)
	r.PaymentMethod = strings.TrimSpace(r.PaymentMethod)
	r.CustomerEmail = strings.TrimSpace(r.CustomerEmail)
	r.ClientIdempotencyKey = strings.TrimSpace(r.ClientIdempotencyKey)
	return r
}

// CheckoutOutcome tells the caller how the checkout URL was obtained
type CheckoutOutcome string

const (
	CheckoutCreated    CheckoutOutcome = "created"
	CheckoutReused     CheckoutOutcome = "reused"
	CheckoutInProgress CheckoutOutcome = "in_progress"
)

// CheckoutResult is a successful checkout response
type CheckoutResult struct {
	Order       *models.Order
	CheckoutURL string
	Outcome     CheckoutOutcome
	RetryAfter  time.Duration
}

// RedirectURLs are the default post-checkout destinations
type RedirectURLs struct {
	SuccessURL string
	CancelURL  string
}

// CheckoutService turns checkout requests into exactly one gateway session per
// subject, product and idempotency window
type CheckoutService struct {
	store          OrderStore
	gateway        GatewayClient
	catalog        *Catalog
	deriver        *idempotency.Deriver
	logger         *slog.Logger
	now            func() time.Time
	redirects      RedirectURLs
	gatewayTimeout time.Duration
	sessionWait    time.Duration
}

// NewCheckoutService creates a new CheckoutService
func NewCheckoutService(
	store OrderStore,
	gw GatewayClient,
	catalog *Catalog,
	deriver *idempotency.Deriver,
	redirects RedirectURLs,
	gatewayTimeout time.Duration,
	logger *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		store:          store,
		gateway:        gw,
		catalog:        catalog,
		deriver:        deriver,
		redirects:      redirects,
		gatewayTimeout: gatewayTimeout,
		sessionWait:    gatewayTimeout,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source
func (s *CheckoutService) WithClock(now func() time.Time) *CheckoutService {
	s.now = now
	return s
}

// WithSessionWait bounds how long a request that lost the claim waits for the
// winner to attach its session. Zero disables waiting.
func (s *CheckoutService) WithSessionWait(d time.Duration) *CheckoutService {
	s.sessionWait = d
	return s
}

// CreateCheckout claims the derived idempotency key and opens a gateway session
// only when this call won the claim
func (s *CheckoutService) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	req = req.normalized()
	if err := ValidateCheckoutRequest(req); err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeInvalidRequest,
			Message: err.Error(),
		}
	}

	product, ok := s.catalog.Lookup(req.ProductID)
	if !ok {
		return nil, &ServiceError{
			Code:    ErrCodeInvalidProduct,
			Message: fmt.Sprintf("unknown product: %s", req.ProductID),
		}
	}

	now := s.now()
	key := s.deriver.Derive(req.SubjectID, req.ProductID, now)

	claim, err := s.claim(ctx, req, product, key, now)
	if errors.Is(err, models.ErrClaimSubjectMismatch) {
		s.logger.Error("idempotency key held by another subject",
			"subject_id", req.SubjectID,
			"key", key.Value,
		)
		return nil, &ServiceError{
			Code:    ErrCodeClaimMismatch,
			Message: "idempotency key conflict",
			Err:     err,
		}
	}
	if err != nil {
		return nil, storeUnavailable("failed to claim checkout", err)
	}

	if !claim.Claimed {
		return s.resolveExisting(ctx, claim.Order, key, true)
	}

	s.logger.Info("checkout claimed",
		"order_id", claim.Order.ID,
		"subject_id", req.SubjectID,
		"product_id", req.ProductID,
		"bucket", key.Bucket,
		"client_idempotency_key", req.ClientIdempotencyKey,
	)

	return s.openSession(ctx, req, product, key, claim.Order)
}

// claim tries the key once, regenerating the order id a single time on collision
func (s *CheckoutService) claim(
	ctx context.Context,
	req CheckoutRequest,
	product models.Product,
	key idempotency.Key,
	now time.Time,
) (*models.ClaimResult, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		order := newPendingOrder(req, product, key, now)
		claim := &models.IdempotencyClaim{
			Key:       key.Value,
			SubjectID: req.SubjectID,
			OrderID:   order.ID,
			CreatedAt: now,
			ExpiresAt: key.WindowEnd,
		}

		result, err := s.store.TryClaim(ctx, claim, order)
		if !errors.Is(err, models.ErrDuplicateOrderID) {
			return result, err
		}
		s.logger.Warn("order id collision, regenerating", "order_id", order.ID)
		lastErr = err
	}
	return nil, lastErr
}

func newPendingOrder(req CheckoutRequest, product models.Product, key idempotency.Key, now time.Time) *models.Order {
	return &models.Order{
		ID:                   uuid.New(),
		SubjectID:            req.SubjectID,
		ProductID:            product.ID,
		Plan:                 product.Plan,
		AmountCents:          product.AmountCents,
		Currency:             product.Currency,
		Status:               models.OrderStatusPending,
		IdempotencyKey:       key.Value,
		ClientIdempotencyKey: optional(req.ClientIdempotencyKey),
		PaymentMethod:        optional(req.PaymentMethod),
		CustomerEmail:        optional(req.CustomerEmail),
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// resolveExisting answers a caller that lost the claim race or repeated a request
func (s *CheckoutService) resolveExisting(ctx context.Context, order *models.Order, key idempotency.Key, wait bool) (*CheckoutResult, error) {
	remaining := s.deriver.Remaining(s.now())

	switch lc := order.Lifecycle().(type) {
	case models.PendingOrder:
		if lc.SessionID != "" {
			return &CheckoutResult{Order: order, CheckoutURL: lc.CheckoutURL, Outcome: CheckoutReused}, nil
		}
		if wait && lc.GatewayError == "" {
			if d := s.winnerWait(order); d > 0 {
				return s.awaitSession(ctx, order, key, d)
			}
		}
		return &CheckoutResult{
			Order:      order,
			Outcome:    CheckoutInProgress,
			RetryAfter: min(inProgressRetryAfter, remaining),
		}, nil

	case models.IncompleteOrder:
		return nil, &ServiceError{
			Code:       ErrCodeCheckoutIncomplete,
			Message:    "the checkout attempt for this window could not be completed",
			OrderID:    &order.ID,
			RetryAfter: remaining,
		}

	default:
		s.logger.Info("checkout already finalized in this window",
			"order_id", order.ID,
			"status", order.Status,
			"key", key.Value,
		)
		return nil, &ServiceError{
			Code:       ErrCodeCheckoutConflict,
			Message:    fmt.Sprintf("a checkout for this product is already %s", order.Status),
			OrderID:    &order.ID,
			RetryAfter: remaining,
		}
	}
}

// winnerWait is how long the claim winner's gateway call can still be running.
// The call starts right after the claim and never outlives the gateway timeout.
func (s *CheckoutService) winnerWait(order *models.Order) time.Duration {
	inFlight := order.CreatedAt.Add(s.gatewayTimeout).Sub(s.now())
	return min(s.sessionWait, inFlight)
}

// awaitSession re-reads the order until the claim winner attaches a session,
// reports a gateway failure or moves it out of pending. When the wait runs out
// the caller gets in_progress.
func (s *CheckoutService) awaitSession(ctx context.Context, order *models.Order, key idempotency.Key, wait time.Duration) (*CheckoutResult, error) {
	ticker := time.NewTicker(sessionPollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(wait)
	defer deadline.Stop()

	current := order
	for {
		select {
		case <-ctx.Done():
			return s.resolveExisting(ctx, current, key, false)
		case <-deadline.C:
			return s.resolveExisting(ctx, current, key, false)
		case <-ticker.C:
		}

		latest, err := s.store.GetByID(ctx, order.ID)
		if err != nil {
			if ctx.Err() != nil {
				return s.resolveExisting(ctx, current, key, false)
			}
			return nil, storeUnavailable("failed to load claimed order", err)
		}
		current = latest
		if current.Status != models.OrderStatusPending || current.HasSession() || current.FailureReason != nil {
			return s.resolveExisting(ctx, current, key, false)
		}
	}
}

// openSession makes the single gateway call for a freshly claimed order
func (s *CheckoutService) openSession(
	ctx context.Context,
	req CheckoutRequest,
	product models.Product,
	key idempotency.Key,
	order *models.Order,
) (*CheckoutResult, error) {
	// The session must be recorded even if the client goes away mid-call.
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.gatewayTimeout)
	defer cancel()

	sess, err := s.gateway.CreateCheckoutSession(callCtx, gateway.SessionRequest{
		OrderID:        order.ID,
		SubjectID:      order.SubjectID,
		ProductID:      product.ID,
		PriceID:        product.PriceID,
		Plan:           product.Plan,
		Interval:       product.Interval,
		AmountCents:    product.AmountCents,
		Currency:       product.Currency,
		CustomerEmail:  req.CustomerEmail,
		SuccessURL:     firstNonEmpty(req.SuccessURL, s.redirects.SuccessURL),
		CancelURL:      firstNonEmpty(req.CancelURL, s.redirects.CancelURL),
		IdempotencyKey: key.Value,
	})
	if err != nil {
		// callCtx may already be past its deadline when the call timed out.
		storeCtx, storeCancel := context.WithTimeout(context.WithoutCancel(ctx), failureRecordTimeout)
		defer storeCancel()
		return nil, s.handleGatewayFailure(storeCtx, order, err, s.deriver.Remaining(s.now()))
	}

	update := models.OrderUpdate{
		ExternalSessionID: &sess.ID,
		CheckoutURL:       &sess.URL,
	}
	if sess.CustomerID != "" {
		update.ExternalCustomerID = &sess.CustomerID
	}

	updated, err := s.store.UpdateOrder(callCtx, order.ID, update)
	if err != nil {
		s.logger.Error("failed to attach checkout session",
			"order_id", order.ID,
			"session_id", sess.ID,
			"error", err,
		)
		svcErr := storeUnavailable("failed to record checkout session", err)
		svcErr.OrderID = &order.ID
		return nil, svcErr
	}

	s.logger.Info("checkout session created",
		"order_id", order.ID,
		"session_id", sess.ID,
	)

	return &CheckoutResult{Order: updated, CheckoutURL: sess.URL, Outcome: CheckoutCreated}, nil
}

func (s *CheckoutService) handleGatewayFailure(ctx context.Context, order *models.Order, err error, remaining time.Duration) error {
	if gateway.IsPermanent(err) {
		reason := err.Error()
		incomplete := models.OrderStatusIncomplete
		if _, uerr := s.store.UpdateOrder(ctx, order.ID, models.OrderUpdate{
			Status:        &incomplete,
			FailureReason: &reason,
		}); uerr != nil {
			s.logger.Error("failed to mark order incomplete",
				"order_id", order.ID,
				"error", uerr,
			)
		}

		s.logger.Warn("gateway rejected checkout",
			"order_id", order.ID,
			"error", err,
		)
		return &ServiceError{
			Code:    ErrCodeGatewayRejected,
			Message: "payment gateway rejected the checkout",
			Err:     err,
			OrderID: &order.ID,
		}
	}

	// Transient or unclassified: the order stays pending and the claim is kept,
	// so repeats in this window report in_progress instead of calling again.
	// The recorded reason tells them not to wait for a session.
	reason := "gateway unavailable: " + err.Error()
	if _, uerr := s.store.UpdateOrder(ctx, order.ID, models.OrderUpdate{
		FailureReason: &reason,
		OnlyFrom:      []models.OrderStatus{models.OrderStatusPending},
	}); uerr != nil {
		s.logger.Error("failed to record gateway failure",
			"order_id", order.ID,
			"error", uerr,
		)
	}

	s.logger.Warn("gateway unavailable, order left pending",
		"order_id", order.ID,
		"error", err,
	)
	return &ServiceError{
		Code:       ErrCodeGatewayUnavailable,
		Message:    "payment gateway is temporarily unavailable",
		Err:        err,
		OrderID:    &order.ID,
		Retryable:  true,
		RetryAfter: remaining,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
