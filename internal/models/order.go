package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// OrderStatus represents the lifecycle state of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusActive     OrderStatus = "active"
	OrderStatusCanceled   OrderStatus = "canceled"
	OrderStatusExpired    OrderStatus = "expired"
	OrderStatusIncomplete OrderStatus = "incomplete"
)

// transitions is the whitelist of allowed status moves. Nothing moves back to pending.
var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {
		OrderStatusActive,
		OrderStatusIncomplete,
		OrderStatusCanceled,
		OrderStatusExpired,
	},
	OrderStatusActive: {
		OrderStatusCanceled,
		OrderStatusExpired,
	},
}

// mutableStatuses are the states that accept field-only updates.
var mutableStatuses = []OrderStatus{OrderStatusPending, OrderStatusActive}

// Valid reports whether s is a known order status
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusActive, OrderStatusCanceled, OrderStatusExpired, OrderStatusIncomplete:
		return true
	}
	return false
}

// IsTerminal reports whether the status ends the normal lifecycle.
// incomplete is a dead end awaiting manual follow-up and is not terminal.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusActive || s == OrderStatusCanceled || s == OrderStatusExpired
}

// CanTransition reports whether an order in state from may move to state to
func CanTransition(from, to OrderStatus) bool {
	return slices.Contains(transitions[from], to)
}

// AllowedSources returns every state from which an order may move to target
func AllowedSources(target OrderStatus) []OrderStatus {
	var sources []OrderStatus
	for _, from := range []OrderStatus{
		OrderStatusPending,
		OrderStatusActive,
		OrderStatusCanceled,
		OrderStatusExpired,
		OrderStatusIncomplete,
	} {
		if CanTransition(from, target) {
			sources = append(sources, from)
		}
	}
	return sources
}

// Order is a single subscription purchase attempt
type Order struct {
	CreatedAt              time.Time   `db:"created_at"`
	UpdatedAt              time.Time   `db:"updated_at"`
	ExpiresAt              *time.Time  `db:"expires_at"`
	ExternalSessionID      *string     `db:"external_session_id"`
	ExternalSubscriptionID *string     `db:"external_subscription_id"`
	ExternalCustomerID     *string     `db:"external_customer_id"`
	CheckoutURL            *string     `db:"checkout_url"`
	ClientIdempotencyKey   *string     `db:"client_idempotency_key"`
	PaymentMethod          *string     `db:"payment_method"`
	CustomerEmail          *string     `db:"customer_email"`
	FailureReason          *string     `db:"failure_reason"`
	SubjectID              string      `db:"subject_id"`
	ProductID              string      `db:"product_id"`
	Plan                   string      `db:"plan"`
	Currency               string      `db:"currency"`
	IdempotencyKey         string      `db:"idempotency_key"`
	Status                 OrderStatus `db:"status"`
	AmountCents            int64       `db:"amount_cents"`
	ID                     uuid.UUID   `db:"id"`
}

// HasSession reports whether a gateway checkout session is attached
func (o *Order) HasSession() bool {
	return o.ExternalSessionID != nil && *o.ExternalSessionID != ""
}

// IsActiveAt reports whether the order grants access at the given instant
func (o *Order) IsActiveAt(now time.Time) bool {
	if o.Status != OrderStatusActive {
		return false
	}
	return o.ExpiresAt == nil || o.ExpiresAt.After(now)
}

// OrderUpdate is a partial update applied by the order store.
// A nil Status means a field-only update.
type OrderUpdate struct {
	Status                 *OrderStatus
	ExternalSessionID      *string
	ExternalSubscriptionID *string
	ExternalCustomerID     *string
	CheckoutURL            *string
	FailureReason          *string
	ExpiresAt              *time.Time
	// OnlyFrom narrows the whitelist to these current states when non-empty.
	OnlyFrom []OrderStatus
}

// AllowedFrom returns the states the order must currently be in for the update to apply
func (u OrderUpdate) AllowedFrom() []OrderStatus {
	allowed := mutableStatuses
	if u.Status != nil {
		allowed = AllowedSources(*u.Status)
	}
	if len(u.OnlyFrom) == 0 {
		return allowed
	}

	narrowed := make([]OrderStatus, 0, len(allowed))
	for _, s := range allowed {
		if slices.Contains(u.OnlyFrom, s) {
			narrowed = append(narrowed, s)
		}
	}
	return narrowed
}

// Apply copies the set fields of u onto o. It does not check the whitelist.
func (u OrderUpdate) Apply(o *Order, now time.Time) {
	if u.Status != nil {
		o.Status = *u.Status
	}
	if u.ExternalSessionID != nil {
		o.ExternalSessionID = u.ExternalSessionID
	}
	if u.ExternalSubscriptionID != nil {
		o.ExternalSubscriptionID = u.ExternalSubscriptionID
	}
	if u.ExternalCustomerID != nil {
		o.ExternalCustomerID = u.ExternalCustomerID
	}
	if u.CheckoutURL != nil {
		o.CheckoutURL = u.CheckoutURL
	}
	if u.FailureReason != nil {
		o.FailureReason = u.FailureReason
	}
	if u.ExpiresAt != nil {
		o.ExpiresAt = u.ExpiresAt
	}
	if now.After(o.UpdatedAt) {
		o.UpdatedAt = now
	}
}
