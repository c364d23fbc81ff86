package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/benx421/subscription-checkout/internal/gateway"
	"github.com/benx421/subscription-checkout/internal/models"
	"github.com/benx421/subscription-checkout/internal/notifier"
)

const stalePendingBatch = 100

// orphanGrace outlives the gateway's own session expiry, so a session created
// by a call that timed out on our side can no longer be paid.
const orphanGrace = 25 * time.Hour

// SweepReport summarizes one maintenance pass
type SweepReport struct {
	ClaimsDeleted   int64
	PendingChecked  int
	PendingResolved int
}

// Sweeper purges expired idempotency claims and settles pending orders the
// webhook path never finished
type Sweeper struct {
	store      OrderStore
	gateway    GatewayClient
	notifier   Notifier
	logger     *slog.Logger
	now        func() time.Time
	staleAfter time.Duration
}

// NewSweeper creates a new Sweeper. Pending orders older than staleAfter are
// checked against the gateway.
func NewSweeper(store OrderStore, gw GatewayClient, n Notifier, staleAfter time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		store:      store,
		gateway:    gw,
		notifier:   n,
		staleAfter: staleAfter,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

// Run sweeps every interval until ctx is done
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("sweeper started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("sweep failed", "error", err)
			}
		}
	}
}

// Sweep runs one full maintenance pass
func (s *Sweeper) Sweep(ctx context.Context) (*SweepReport, error) {
	now := s.now()
	report := &SweepReport{}

	deleted, err := s.SweepExpiredClaims(ctx, now)
	if err != nil {
		return report, err
	}
	report.ClaimsDeleted = deleted

	checked, resolved, err := s.SettleStalePending(ctx, now)
	report.PendingChecked = checked
	report.PendingResolved = resolved
	if err != nil {
		return report, err
	}

	if report.ClaimsDeleted > 0 || report.PendingResolved > 0 {
		s.logger.Info("sweep completed",
			"claims_deleted", report.ClaimsDeleted,
			"pending_checked", report.PendingChecked,
			"pending_resolved", report.PendingResolved,
		)
	}
	return report, nil
}

// SweepExpiredClaims deletes claims whose window ended before now. Orders are never touched.
func (s *Sweeper) SweepExpiredClaims(ctx context.Context, now time.Time) (int64, error) {
	deleted, err := s.store.DeleteExpiredClaims(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired claims: %w", err)
	}
	return deleted, nil
}

// SettleStalePending asks the gateway about old pending orders and applies the answer
func (s *Sweeper) SettleStalePending(ctx context.Context, now time.Time) (checked, resolved int, err error) {
	orders, err := s.store.ListStalePending(ctx, now.Add(-s.staleAfter), stalePendingBatch)
	if err != nil {
		return 0, 0, fmt.Errorf("list stale pending orders: %w", err)
	}

	for _, order := range orders {
		if ctx.Err() != nil {
			return checked, resolved, ctx.Err()
		}
		checked++

		update, ok, err := s.settlement(ctx, order, now)
		if err != nil {
			s.logger.Warn("could not check pending order", "order_id", order.ID, "error", err)
			continue
		}
		if !ok {
			continue
		}

		updated, err := s.store.UpdateOrder(ctx, order.ID, update)
		var transitionErr *models.TransitionError
		if errors.As(err, &transitionErr) {
			// a webhook settled it first
			continue
		}
		if err != nil {
			return checked, resolved, fmt.Errorf("settle order %s: %w", order.ID, err)
		}
		resolved++

		s.logger.Info("settled stale pending order", "order_id", order.ID, "status", updated.Status)
		if updated.Status.IsTerminal() {
			event := notifier.NewOrderEvent(updated, "", now)
			if err := s.notifier.Notify(ctx, event); err != nil {
				s.logger.Error("failed to notify terminal transition", "order_id", updated.ID, "error", err)
			}
		}
	}
	return checked, resolved, nil
}

// settlement decides what a stale pending order should become
func (s *Sweeper) settlement(ctx context.Context, order *models.Order, now time.Time) (models.OrderUpdate, bool, error) {
	status := func(st models.OrderStatus) *models.OrderStatus { return &st }
	pendingOnly := []models.OrderStatus{models.OrderStatusPending}

	if !order.HasSession() {
		if now.Sub(order.CreatedAt) < orphanGrace {
			return models.OrderUpdate{}, false, nil
		}
		reason := "checkout session was never created"
		return models.OrderUpdate{Status: status(models.OrderStatusIncomplete), FailureReason: &reason, OnlyFrom: pendingOnly}, true, nil
	}

	snap, err := s.gateway.RetrieveSession(ctx, *order.ExternalSessionID)
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) && gwErr.Kind == gateway.Permanent && gwErr.StatusCode == http.StatusNotFound {
		reason := "checkout session no longer exists at the gateway"
		return models.OrderUpdate{Status: status(models.OrderStatusIncomplete), FailureReason: &reason, OnlyFrom: pendingOnly}, true, nil
	}
	if err != nil {
		return models.OrderUpdate{}, false, err
	}

	switch {
	case snap.Status == "expired":
		return models.OrderUpdate{Status: status(models.OrderStatusExpired), OnlyFrom: pendingOnly}, true, nil
	case snap.Status == "complete" && gateway.PaymentSettled(snap.PaymentStatus):
		update := models.OrderUpdate{Status: status(models.OrderStatusActive)}
		if snap.SubscriptionID != "" {
			update.ExternalSubscriptionID = &snap.SubscriptionID
		}
		if snap.CustomerID != "" {
			update.ExternalCustomerID = &snap.CustomerID
		}
		return update, true, nil
	}
	return models.OrderUpdate{}, false, nil
}
