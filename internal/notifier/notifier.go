// Package notifier delivers order lifecycle notifications to downstream systems.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/benx421/subscription-checkout/internal/models"
)

// OrderEvent is published whenever an order reaches active, canceled or expired
type OrderEvent struct {
	OccurredAt     time.Time `json:"occurred_at"`
	OrderID        string    `json:"order_id"`
	SubjectID      string    `json:"subject_id"`
	Status         string    `json:"status"`
	Plan           string    `json:"plan"`
	Currency       string    `json:"currency"`
	SubscriptionID string    `json:"subscription_id,omitempty"`
	EventID        string    `json:"event_id,omitempty"`
	AmountCents    int64     `json:"amount_cents"`
}

// NewOrderEvent builds the notification payload for an order's current state
func NewOrderEvent(order *models.Order, eventID string, occurredAt time.Time) OrderEvent {
	event := OrderEvent{
		OccurredAt:  occurredAt.UTC(),
		OrderID:     order.ID.String(),
		SubjectID:   order.SubjectID,
		Status:      string(order.Status),
		Plan:        order.Plan,
		Currency:    order.Currency,
		EventID:     eventID,
		AmountCents: order.AmountCents,
	}
	switch state := order.Lifecycle().(type) {
	case models.ActiveOrder:
		event.SubscriptionID = state.SubscriptionID
	case models.ClosedOrder:
		event.SubscriptionID = state.SubscriptionID
	}
	return event
}

// Notifier delivers a single OrderEvent
type Notifier interface {
	Notify(ctx context.Context, event OrderEvent) error
}

// Fanout delivers every event to all of its notifiers, collecting failures
type Fanout struct {
	notifiers []Notifier
	logger    *slog.Logger
}

// NewFanout creates a Fanout over notifiers
func NewFanout(logger *slog.Logger, notifiers ...Notifier) *Fanout {
	return &Fanout{notifiers: notifiers, logger: logger}
}

// Notify calls every notifier even if an earlier one fails
func (f *Fanout) Notify(ctx context.Context, event OrderEvent) error {
	var errs []error
	for _, n := range f.notifiers {
		if err := n.Notify(ctx, event); err != nil {
			f.logger.Warn("notifier delivery failed",
				"notifier", fmt.Sprintf("%T", n),
				"order_id", event.OrderID,
				"error", err,
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogNotifier writes events to the structured log
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify logs the event
func (n *LogNotifier) Notify(_ context.Context, event OrderEvent) error {
	n.Logger.Info("order reached terminal state",
		"order_id", event.OrderID,
		"subject_id", event.SubjectID,
		"status", event.Status,
		"plan", event.Plan,
		"amount_cents", event.AmountCents,
		"currency", event.Currency,
		"subscription_id", event.SubscriptionID,
		"event_id", event.EventID,
	)
	return nil
}
