package service

import (
	"context"
	"time"

	"github.com/benx421/subscription-checkout/internal/gateway"
	"github.com/benx421/subscription-checkout/internal/models"
	"github.com/benx421/subscription-checkout/internal/notifier"
	"github.com/benx421/subscription-checkout/internal/repository"
	"github.com/google/uuid"
)

// HealthChecker validates system health.
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// OrderStore is the single point of serialization for orders, claims and the event ledger
type OrderStore interface {
	repository.OrderRepository
}

// GatewayClient creates checkout sessions with the payment provider
type GatewayClient interface {
	gateway.Client
}

// EventVerifier authenticates and decodes provider webhooks
type EventVerifier interface {
	gateway.EventVerifier
}

// Notifier receives terminal order transitions
type Notifier interface {
	Notify(ctx context.Context, event notifier.OrderEvent) error
}

// CheckoutCreator starts or resumes a subscription checkout
type CheckoutCreator interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error)
}

// EventHandler reconciles provider webhooks into order state
type EventHandler interface {
	HandleEvent(ctx context.Context, payload []byte, signature string) (*ReconcileResult, error)
}

// OrderQuerier answers read-only questions about orders
type OrderQuerier interface {
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetSubjectOrder(ctx context.Context, subjectID string, id uuid.UUID) (*models.Order, error)
	GetSubjectOrders(ctx context.Context, subjectID string, limit int) (*SubjectOrders, error)
}

// ProductCatalog lists the purchasable products
type ProductCatalog interface {
	Products() []models.Product
}

// ClaimSweeper purges idempotency claims whose window has passed
type ClaimSweeper interface {
	SweepExpiredClaims(ctx context.Context, now time.Time) (int64, error)
}

// Ensure concrete types implement interfaces
var (
	_ CheckoutCreator = (*CheckoutService)(nil)
	_ EventHandler    = (*ReconcilerService)(nil)
	_ OrderQuerier    = (*QueryService)(nil)
	_ ClaimSweeper    = (*Sweeper)(nil)
	_ ProductCatalog  = (*Catalog)(nil)
)
