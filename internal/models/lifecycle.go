package models

import (
	"time"

	"github.com/google/uuid"
)

// Lifecycle is a per-state view of an order. Gateway correlation fields are
// only reachable from the variants in which they are guaranteed to be set.
type Lifecycle interface {
	OrderID() uuid.UUID
	State() OrderStatus
}

// PendingOrder is an order waiting for checkout completion
type PendingOrder struct {
	// SessionID is empty while the gateway session is still being created.
	SessionID    string
	CheckoutURL  string
	// GatewayError is set once the session call failed without a verdict; no call is in flight.
	GatewayError string
	ID           uuid.UUID
}

// ActiveOrder is a paid, running subscription
type ActiveOrder struct {
	ExpiresAt      *time.Time
	SubscriptionID string
	CustomerID     string
	ID             uuid.UUID
}

// ClosedOrder is a subscription that was canceled or expired
type ClosedOrder struct {
	Status         OrderStatus
	SubscriptionID string
	ID             uuid.UUID
}

// IncompleteOrder is an order whose checkout could not be created or paid
type IncompleteOrder struct {
	Reason string
	ID     uuid.UUID
}

func (p PendingOrder) OrderID() uuid.UUID    { return p.ID }
func (p PendingOrder) State() OrderStatus    { return OrderStatusPending }
func (a ActiveOrder) OrderID() uuid.UUID     { return a.ID }
func (a ActiveOrder) State() OrderStatus     { return OrderStatusActive }
func (c ClosedOrder) OrderID() uuid.UUID     { return c.ID }
func (c ClosedOrder) State() OrderStatus     { return c.Status }
func (i IncompleteOrder) OrderID() uuid.UUID { return i.ID }
func (i IncompleteOrder) State() OrderStatus { return OrderStatusIncomplete }

// Lifecycle returns the state-specific view of the order
func (o *Order) Lifecycle() Lifecycle {
	switch o.Status {
	case OrderStatusActive:
		return ActiveOrder{
			ID:             o.ID,
			SubscriptionID: deref(o.ExternalSubscriptionID),
			CustomerID:     deref(o.ExternalCustomerID),
			ExpiresAt:      o.ExpiresAt,
		}
	case OrderStatusCanceled, OrderStatusExpired:
		return ClosedOrder{
			ID:             o.ID,
			Status:         o.Status,
			SubscriptionID: deref(o.ExternalSubscriptionID),
		}
	case OrderStatusIncomplete:
		return IncompleteOrder{ID: o.ID, Reason: deref(o.FailureReason)}
	default:
		return PendingOrder{
			ID:           o.ID,
			SessionID:    deref(o.ExternalSessionID),
			CheckoutURL:  deref(o.CheckoutURL),
			GatewayError: deref(o.FailureReason),
		}
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
