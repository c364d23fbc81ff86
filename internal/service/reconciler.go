package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/benx421/subscription-checkout/internal/gateway"
	"github.com/benx421/subscription-checkout/internal/models"
	"github.com/benx421/subscription-checkout/internal/notifier"
	"github.com/google/uuid"
)

// notifyTimeout bounds the fan-out to every notifier for one transition
const notifyTimeout = 5 * time.Second

// ReconcileStatus reports what happened to a delivered webhook
type ReconcileStatus string

const (
	ReconcileProcessed ReconcileStatus = "processed"
	ReconcileDuplicate ReconcileStatus = "duplicate"
	ReconcileUnmatched ReconcileStatus = "unmatched"
	ReconcileIgnored   ReconcileStatus = "ignored"
)

// ReconcileResult describes the effect of one webhook delivery
type ReconcileResult struct {
	OrderID     *uuid.UUID
	EventID     string
	EventType   string
	Status      ReconcileStatus
	OrderStatus models.OrderStatus
}

// ReconcilerService applies verified gateway events to orders exactly once per event id
type ReconcilerService struct {
	store    OrderStore
	verifier EventVerifier
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewReconcilerService creates a new ReconcilerService
func NewReconcilerService(store OrderStore, verifier EventVerifier, n Notifier, logger *slog.Logger) *ReconcilerService {
	return &ReconcilerService{
		store:    store,
		verifier: verifier,
		notifier: n,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// HandleEvent verifies, deduplicates and applies a raw webhook delivery
func (s *ReconcilerService) HandleEvent(ctx context.Context, payload []byte, signature string) (*ReconcileResult, error) {
	evt, err := s.verifier.VerifyEvent(payload, signature)
	if err != nil {
		if errors.Is(err, gateway.ErrInvalidSignature) {
			s.logger.Warn("rejected webhook with invalid signature",
				"payload_bytes", len(payload),
				"error", err,
			)
			return nil, &ServiceError{Code: ErrCodeInvalidSignature, Message: "invalid webhook signature", Err: err}
		}
		return nil, &ServiceError{Code: ErrCodeInvalidPayload, Message: "invalid webhook payload", Err: err}
	}

	result := &ReconcileResult{EventID: evt.ID, EventType: evt.Type}
	logger := s.logger.With("event_id", evt.ID, "event_type", evt.Type)

	processed, err := s.store.HasProcessedEvent(ctx, evt.ID)
	if err != nil {
		return nil, storeUnavailable("failed to check event ledger", err)
	}
	if processed {
		logger.Debug("duplicate webhook delivery")
		result.Status = ReconcileDuplicate
		return result, nil
	}

	order, err := s.resolveOrder(ctx, evt)
	if err != nil {
		return nil, storeUnavailable("failed to resolve order for event", err)
	}
	if order == nil {
		logger.Warn("webhook does not match any order",
			"session_id", evt.SessionID,
			"subscription_id", evt.SubscriptionID,
			"metadata_order_id", evt.OrderID,
		)
		return s.record(ctx, result, nil, models.EventOutcomeUnmatched, ReconcileUnmatched)
	}
	result.OrderID = &order.ID
	result.OrderStatus = order.Status
	logger = logger.With("order_id", order.ID)

	update, ok := eventUpdate(evt, order)
	if !ok {
		logger.Debug("webhook has no effect on order", "status", order.Status)
		return s.record(ctx, result, &order.ID, models.EventOutcomeIgnored, ReconcileIgnored)
	}

	record := &models.GatewayEventRecord{EventID: evt.ID, EventType: evt.Type}
	updated, err := s.store.ApplyEvent(ctx, record, order.ID, update)

	var transitionErr *models.TransitionError
	switch {
	case err == nil:
	case errors.Is(err, models.ErrEventAlreadyProcessed):
		result.Status = ReconcileDuplicate
		return result, nil
	case errors.As(err, &transitionErr):
		// Stale or out-of-order event. incomplete orders land here too and need manual follow-up.
		logger.Info("webhook transition rejected",
			"from", transitionErr.From,
			"to", update.Status,
		)
		result.Status = ReconcileIgnored
		return result, nil
	default:
		return nil, storeUnavailable("failed to apply event", err)
	}

	result.Status = ReconcileProcessed
	result.OrderStatus = updated.Status
	logger.Info("webhook applied", "from", order.Status, "to", updated.Status)

	if update.Status != nil && updated.Status.IsTerminal() {
		s.notify(ctx, updated, evt.ID)
	}
	return result, nil
}

// resolveOrder looks the order up by session id, then subscription id, then metadata order id
func (s *ReconcilerService) resolveOrder(ctx context.Context, evt *gateway.Event) (*models.Order, error) {
	lookups := []func() (*models.Order, error){
		func() (*models.Order, error) {
			if evt.SessionID == "" {
				return nil, models.ErrNotFound
			}
			return s.store.GetByExternalSessionID(ctx, evt.SessionID)
		},
		func() (*models.Order, error) {
			if evt.SubscriptionID == "" {
				return nil, models.ErrNotFound
			}
			return s.store.GetByExternalSubscriptionID(ctx, evt.SubscriptionID)
		},
		func() (*models.Order, error) {
			id, err := uuid.Parse(evt.OrderID)
			if err != nil {
				return nil, models.ErrNotFound
			}
			return s.store.GetByID(ctx, id)
		},
	}

	for _, lookup := range lookups {
		order, err := lookup()
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
	}
	return nil, nil
}

func (s *ReconcilerService) record(
	ctx context.Context,
	result *ReconcileResult,
	orderID *uuid.UUID,
	outcome models.EventOutcome,
	status ReconcileStatus,
) (*ReconcileResult, error) {
	err := s.store.RecordEvent(ctx, &models.GatewayEventRecord{
		EventID:   result.EventID,
		EventType: result.EventType,
		OrderID:   orderID,
		Outcome:   outcome,
	})
	if errors.Is(err, models.ErrEventAlreadyProcessed) {
		result.Status = ReconcileDuplicate
		return result, nil
	}
	if err != nil {
		return nil, storeUnavailable("failed to record event", err)
	}
	result.Status = status
	return result, nil
}

func (s *ReconcilerService) notify(ctx context.Context, order *models.Order, eventID string) {
	// The transition is committed; a gateway hanging up must not cancel the announcement.
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	event := notifier.NewOrderEvent(order, eventID, s.now())
	if err := s.notifier.Notify(notifyCtx, event); err != nil {
		s.logger.Error("failed to notify terminal transition",
			"order_id", order.ID,
			"status", order.Status,
			"error", err,
		)
	}
}

// Subscription statuses after which the gateway will never bill again
const (
	subscriptionStatusCanceled          = "canceled"
	subscriptionStatusIncompleteExpired = "incomplete_expired"
)

// eventUpdate maps a gateway event onto an order update. ok is false for events with no effect.
func eventUpdate(evt *gateway.Event, order *models.Order) (update models.OrderUpdate, ok bool) {
	status := func(s models.OrderStatus) *models.OrderStatus { return &s }
	// Checkout session events only speak for orders still waiting on that session.
	pendingOnly := []models.OrderStatus{models.OrderStatusPending}

	switch evt.Type {
	case gateway.EventCheckoutCompleted:
		attachSessionIDs(&update, evt, order)
		if !gateway.PaymentSettled(evt.PaymentStatus) {
			// Delayed payment method: keep the ids and wait for the async payment event.
			update.OnlyFrom = pendingOnly
			return update, true
		}
		update.Status = status(models.OrderStatusActive)
		return update, true

	case gateway.EventCheckoutAsyncPaymentSucceeded:
		attachSessionIDs(&update, evt, order)
		update.Status = status(models.OrderStatusActive)
		update.OnlyFrom = pendingOnly
		return update, true

	case gateway.EventCheckoutExpired:
		update.Status = status(models.OrderStatusExpired)
		update.OnlyFrom = pendingOnly
		return update, true

	case gateway.EventCheckoutAsyncPaymentFailed:
		reason := "asynchronous payment failed"
		update.Status = status(models.OrderStatusIncomplete)
		update.FailureReason = &reason
		update.OnlyFrom = pendingOnly
		return update, true

	case gateway.EventSubscriptionDeleted:
		update.Status = status(models.OrderStatusCanceled)
		return update, true

	case gateway.EventSubscriptionUpdated:
		switch evt.SubscriptionStatus {
		case subscriptionStatusCanceled:
			update.Status = status(models.OrderStatusCanceled)
			return update, true
		case subscriptionStatusIncompleteExpired:
			update.Status = status(models.OrderStatusExpired)
			return update, true
		}
		if evt.PeriodEnd == nil {
			return update, false
		}
		update.ExpiresAt = evt.PeriodEnd
		return update, true
	}

	return update, false
}

func attachSessionIDs(update *models.OrderUpdate, evt *gateway.Event, order *models.Order) {
	if evt.SubscriptionID != "" {
		update.ExternalSubscriptionID = &evt.SubscriptionID
	}
	if evt.CustomerID != "" {
		update.ExternalCustomerID = &evt.CustomerID
	}
	if !order.HasSession() && evt.SessionID != "" {
		update.ExternalSessionID = &evt.SessionID
	}
}
