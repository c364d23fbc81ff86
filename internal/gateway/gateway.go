// Package gateway is the boundary to the external payment provider: checkout
// session creation and webhook event verification.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types the reconciler understands
const (
	EventCheckoutCompleted             = "checkout.session.completed"
	EventCheckoutExpired               = "checkout.session.expired"
	EventCheckoutAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
	EventCheckoutAsyncPaymentFailed    = "checkout.session.async_payment_failed"
	EventSubscriptionDeleted           = "customer.subscription.deleted"
	EventSubscriptionUpdated           = "customer.subscription.updated"
)

// Checkout session payment statuses
const (
	PaymentStatusPaid              = "paid"
	PaymentStatusUnpaid            = "unpaid"
	PaymentStatusNoPaymentRequired = "no_payment_required"
)

// PaymentSettled reports whether a session payment status means the first invoice is covered.
// Delayed methods complete the session as unpaid and settle later through an async payment event.
func PaymentSettled(paymentStatus string) bool {
	return paymentStatus == PaymentStatusPaid || paymentStatus == PaymentStatusNoPaymentRequired
}

// Metadata keys attached to every session so webhooks can be correlated back to orders
const (
	MetadataOrderID   = "order_id"
	MetadataSubjectID = "subject_id"
)

// SessionRequest describes the checkout session to open for one order
type SessionRequest struct {
	SubjectID      string
	ProductID      string
	PriceID        string
	Plan           string
	Interval       string
	Currency       string
	CustomerEmail  string
	SuccessURL     string
	CancelURL      string
	IdempotencyKey string
	AmountCents    int64
	OrderID        uuid.UUID
}

// Session is a newly created hosted checkout session
type Session struct {
	ID         string
	URL        string
	CustomerID string
}

// SessionSnapshot is the provider's current view of a checkout session
type SessionSnapshot struct {
	ID             string
	Status         string
	PaymentStatus  string
	CustomerID     string
	SubscriptionID string
	OrderID        string
}

// Event is a verified, provider-neutral webhook event
type Event struct {
	PeriodEnd          *time.Time
	ID                 string
	Type               string
	SessionID          string
	SubscriptionID     string
	CustomerID         string
	OrderID            string
	PaymentStatus      string
	SubscriptionStatus string
}

// Client creates and inspects checkout sessions
type Client interface {
	CreateCheckoutSession(ctx context.Context, req SessionRequest) (*Session, error)
	RetrieveSession(ctx context.Context, sessionID string) (*SessionSnapshot, error)
}

// EventVerifier authenticates raw webhook payloads and normalises them into Events
type EventVerifier interface {
	VerifyEvent(payload []byte, signatureHeader string) (*Event, error)
}

var (
	// ErrInvalidSignature indicates the webhook signature did not verify
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrInvalidPayload indicates the webhook body could not be decoded
	ErrInvalidPayload = errors.New("invalid webhook payload")
)

// ErrorKind classifies a provider failure for retry decisions
type ErrorKind int

const (
	// Transient failures may succeed on retry: network errors, timeouts, 429 and 5xx.
	Transient ErrorKind = iota
	// Permanent failures will fail again with the same input.
	Permanent
)

func (k ErrorKind) String() string {
	if k == Permanent {
		return "permanent"
	}
	return "transient"
}

// Error is a classified provider failure
type Error struct {
	Err        error
	Op         string
	Message    string
	Kind       ErrorKind
	StatusCode int
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("gateway %s failed (%s, status %d): %s", e.Op, e.Kind, e.StatusCode, msg)
	}
	return fmt.Sprintf("gateway %s failed (%s): %s", e.Op, e.Kind, msg)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *Error) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a provider failure worth retrying.
// Context deadline errors count as transient: the session may or may not exist.
func IsTransient(err error) bool {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind == Transient
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// IsPermanent reports whether err is a provider rejection that will not succeed on retry
func IsPermanent(err error) bool {
	var gwErr *Error
	return errors.As(err, &gwErr) && gwErr.Kind == Permanent
}

// classifyStatus maps an HTTP status from the provider onto an ErrorKind
func classifyStatus(status int) ErrorKind {
	switch {
	case status == 0:
		return Transient
	case status == 429:
		return Transient
	case status >= 500:
		return Transient
	default:
		return Permanent
	}
}
