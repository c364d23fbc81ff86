package api

import (
	"time"

	"github.com/google/uuid"
)

// ErrorCode is the machine-readable error identifier returned to clients
type ErrorCode string

const (
	ErrorCodeInvalidRequest     ErrorCode = "invalid_request"
	ErrorCodeInvalidProduct     ErrorCode = "invalid_product"
	ErrorCodeCheckoutConflict   ErrorCode = "checkout_conflict"
	ErrorCodeCheckoutIncomplete ErrorCode = "checkout_incomplete"
	ErrorCodeGatewayRejected    ErrorCode = "gateway_rejected"
	ErrorCodeGatewayUnavailable ErrorCode = "gateway_unavailable"
	ErrorCodeServiceUnavailable ErrorCode = "service_unavailable"
	ErrorCodeInvalidSignature   ErrorCode = "invalid_signature"
	ErrorCodeInvalidPayload     ErrorCode = "invalid_payload"
	ErrorCodeNotFound           ErrorCode = "not_found"
	ErrorCodeInternalError      ErrorCode = "internal_error"
)

// Error is the body of every non-2xx response
type Error struct {
	RetryAfterSeconds *int      `json:"retry_after_seconds,omitempty"`
	Error             ErrorCode `json:"error"`
	Message           string    `json:"message"`
}

// HealthStatus reports whether the service can reach its order store
type HealthStatus string

const (
	Healthy   HealthStatus = "healthy"
	Unhealthy HealthStatus = "unhealthy"
)

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status HealthStatus `json:"status"`
}

// Product is a catalog entry
type Product struct {
	ID          string `json:"id"`
	Plan        string `json:"plan"`
	Currency    string `json:"currency"`
	Interval    string `json:"interval,omitempty"`
	AmountCents int64  `json:"amount_cents"`
}

// ProductList is the body of GET /api/v1/products
type ProductList struct {
	Products []Product `json:"products"`
}

// CheckoutRequest is the body of POST /api/v1/checkouts
type CheckoutRequest struct {
	PaymentMethod *string `json:"payment_method,omitempty"`
	CustomerEmail *string `json:"customer_email,omitempty"`
	SuccessURL    *string `json:"success_url,omitempty"`
	CancelURL     *string `json:"cancel_url,omitempty"`
	SubjectID     string  `json:"subject_id"`
	ProductID     string  `json:"product_id"`
}

// CheckoutResponse is returned for created, reused and in-progress checkouts
type CheckoutResponse struct {
	CheckoutURL       *string   `json:"checkout_url,omitempty"`
	RetryAfterSeconds *int      `json:"retry_after_seconds,omitempty"`
	Status            string    `json:"status"`
	Outcome           string    `json:"outcome"`
	IdempotencyKey    string    `json:"idempotency_key"`
	OrderID           uuid.UUID `json:"order_id"`
}

// WebhookResponse acknowledges a webhook delivery
type WebhookResponse struct {
	EventID  *string    `json:"event_id,omitempty"`
	OrderID  *uuid.UUID `json:"order_id,omitempty"`
	Status   string     `json:"status"`
	Received bool       `json:"received"`
}

// Order is the public view of an order
type Order struct {
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
	ExpiresAt              *time.Time `json:"expires_at,omitempty"`
	CheckoutURL            *string    `json:"checkout_url,omitempty"`
	ExternalSessionID      *string    `json:"external_session_id,omitempty"`
	ExternalSubscriptionID *string    `json:"external_subscription_id,omitempty"`
	FailureReason          *string    `json:"failure_reason,omitempty"`
	SubjectID              string     `json:"subject_id"`
	ProductID              string     `json:"product_id"`
	Plan                   string     `json:"plan"`
	Currency               string     `json:"currency"`
	Status                 string     `json:"status"`
	AmountCents            int64      `json:"amount_cents"`
	OrderID                uuid.UUID  `json:"order_id"`
}

// SubjectOrders is the body of GET /api/v1/subjects/{subjectId}/orders
type SubjectOrders struct {
	ActiveOrder           *Order  `json:"active_order,omitempty"`
	SubjectID             string  `json:"subject_id"`
	Orders                []Order `json:"orders"`
	HasActiveSubscription bool    `json:"has_active_subscription"`
}
