// Package repository provides data access layer implementations for the checkout service.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/benx421/subscription-checkout/internal/db"
	"github.com/benx421/subscription-checkout/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// OrderRepository defines the interface for order, claim and event ledger data access
type OrderRepository interface {
	PingContext(ctx context.Context) error

	TryClaim(ctx context.Context, claim *models.IdempotencyClaim, order *models.Order) (*models.ClaimResult, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	UpdateOrder(ctx context.Context, id uuid.UUID, update models.OrderUpdate) (*models.Order, error)

	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetByExternalSessionID(ctx context.Context, sessionID string) (*models.Order, error)
	GetByExternalSubscriptionID(ctx context.Context, subscriptionID string) (*models.Order, error)
	GetActiveBySubject(ctx context.Context, subjectID string, now time.Time) (*models.Order, error)
	ListBySubject(ctx context.Context, subjectID string, limit int) ([]*models.Order, error)
	ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]*models.Order, error)

	HasProcessedEvent(ctx context.Context, eventID string) (bool, error)
	ApplyEvent(ctx context.Context, record *models.GatewayEventRecord, orderID uuid.UUID, update models.OrderUpdate) (*models.Order, error)
	RecordEvent(ctx context.Context, record *models.GatewayEventRecord) error

	DeleteExpiredClaims(ctx context.Context, now time.Time) (int64, error)
}

const uniqueViolation = "23505"

const orderColumns = `
	id, subject_id, product_id, plan, amount_cents, currency, status,
	idempotency_key, client_idempotency_key, external_session_id,
	external_subscription_id, external_customer_id, checkout_url,
	payment_method, customer_email, failure_reason,
	created_at, updated_at, expires_at`

// orderRepository implements OrderRepository on PostgreSQL
type orderRepository struct {
	db *db.DB
}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository(database *db.DB) OrderRepository {
	return &orderRepository{db: database}
}

// PingContext verifies the database is reachable
func (r *orderRepository) PingContext(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// TryClaim inserts the claim and its pending order in one transaction.
// When the key is already claimed, the order that owns it is returned instead.
func (r *orderRepository) TryClaim(ctx context.Context, claim *models.IdempotencyClaim, order *models.Order) (*models.ClaimResult, error) {
	var claimed bool
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		var key string
		err := tx.QueryRowContext(ctx, `
			INSERT INTO idempotency_claims (key, subject_id, order_id, created_at, expires_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (key) DO NOTHING
			RETURNING key
		`, claim.Key, claim.SubjectID, order.ID, claim.CreatedAt, claim.ExpiresAt).Scan(&key)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to insert idempotency claim: %w", err)
		}

		if err := insertOrder(ctx, tx, order); err != nil {
			return err
		}
		claimed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if claimed {
		claim.OrderID = order.ID
		return &models.ClaimResult{Order: order, Claimed: true}, nil
	}

	existing, err := r.findClaimedOrder(ctx, claim)
	if err != nil {
		return nil, err
	}
	return &models.ClaimResult{Order: existing, Claimed: false}, nil
}

func (r *orderRepository) findClaimedOrder(ctx context.Context, claim *models.IdempotencyClaim) (*models.Order, error) {
	var subjectID string
	var orderID uuid.UUID
	err := r.db.QueryRowContext(ctx, `
		SELECT subject_id, order_id FROM idempotency_claims WHERE key = $1
	`, claim.Key).Scan(&subjectID, &orderID)
	if errors.Is(err, sql.ErrNoRows) {
		// the conflicting claim was rolled back or swept after our insert lost
		return nil, fmt.Errorf("idempotency claim %s vanished: %w", claim.Key, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find idempotency claim: %w", err)
	}

	if subjectID != claim.SubjectID {
		return nil, models.ErrClaimSubjectMismatch
	}

	return r.GetByID(ctx, orderID)
}

// CreateOrder inserts a standalone order
func (r *orderRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	return insertOrder(ctx, r.db, order)
}

func insertOrder(ctx context.Context, q db.DBTX, order *models.Order) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO orders (
			id, subject_id, product_id, plan, amount_cents, currency, status,
			idempotency_key, client_idempotency_key, payment_method, customer_email,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		order.ID,
		order.SubjectID,
		order.ProductID,
		order.Plan,
		order.AmountCents,
		order.Currency,
		order.Status,
		order.IdempotencyKey,
		order.ClientIdempotencyKey,
		order.PaymentMethod,
		order.CustomerEmail,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("order %s: %w", order.ID, models.ErrDuplicateOrderID)
	}
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// UpdateOrder applies update only when the current status allows it
func (r *orderRepository) UpdateOrder(ctx context.Context, id uuid.UUID, update models.OrderUpdate) (*models.Order, error) {
	return updateOrder(ctx, r.db, id, update, time.Now().UTC())
}

func updateOrder(ctx context.Context, q db.DBTX, id uuid.UUID, update models.OrderUpdate, now time.Time) (*models.Order, error) {
	var status *string
	if update.Status != nil {
		s := string(*update.Status)
		status = &s
	}

	allowed := make([]string, 0, len(update.AllowedFrom()))
	for _, s := range update.AllowedFrom() {
		allowed = append(allowed, string(s))
	}

	row := q.QueryRowContext(ctx, `
		UPDATE orders SET
			status                   = COALESCE($2, status),
			external_session_id      = COALESCE($3, external_session_id),
			external_subscription_id = COALESCE($4, external_subscription_id),
			external_customer_id     = COALESCE($5, external_customer_id),
			checkout_url             = COALESCE($6, checkout_url),
			failure_reason           = COALESCE($7, failure_reason),
			expires_at               = COALESCE($8, expires_at),
			updated_at               = GREATEST(updated_at, $9)
		WHERE id = $1 AND status = ANY($10::text[])
		RETURNING `+orderColumns,
		id,
		status,
		update.ExternalSessionID,
		update.ExternalSubscriptionID,
		update.ExternalCustomerID,
		update.CheckoutURL,
		update.FailureReason,
		update.ExpiresAt,
		now,
		pq.Array(allowed),
	)

	order, err := scanOrder(row)
	if err == nil {
		return order, nil
	}
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("order %s: external id already attached to another order: %w", id, err)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	var current models.OrderStatus
	err = q.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read order status: %w", err)
	}
	return nil, &models.TransitionError{From: current, To: update.Status}
}

// GetByID retrieves an order by its UUID
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

// GetByExternalSessionID retrieves the order a gateway checkout session belongs to
func (r *orderRepository) GetByExternalSessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE external_session_id = $1`, sessionID)
}

// GetByExternalSubscriptionID retrieves the order a gateway subscription belongs to
func (r *orderRepository) GetByExternalSubscriptionID(ctx context.Context, subscriptionID string) (*models.Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE external_subscription_id = $1`, subscriptionID)
}

// GetActiveBySubject returns the most recent order granting access at now
func (r *orderRepository) GetActiveBySubject(ctx context.Context, subjectID string, now time.Time) (*models.Order, error) {
	return r.getOne(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE subject_id = $1
		  AND status = 'active'
		  AND (expires_at IS NULL OR expires_at > $2)
		ORDER BY created_at DESC
		LIMIT 1
	`, subjectID, now)
}

// ListBySubject returns a subject's orders, newest first. A limit of zero or less means no limit.
func (r *orderRepository) ListBySubject(ctx context.Context, subjectID string, limit int) ([]*models.Order, error) {
	return r.list(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE subject_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2
	`, subjectID, limitArg(limit))
}

// ListStalePending returns pending orders created before the cutoff, oldest first
func (r *orderRepository) ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]*models.Order, error) {
	return r.list(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE status = 'pending' AND created_at < $1
		ORDER BY created_at, id
		LIMIT $2
	`, createdBefore, limitArg(limit))
}

// limitArg maps a non-positive limit to NULL, which Postgres reads as LIMIT ALL
func limitArg(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}

func (r *orderRepository) list(ctx context.Context, query string, args ...any) ([]*models.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer func() {
		_ = rows.Close() //nolint:errcheck // close error is not actionable here
	}()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}
	return orders, nil
}

// HasProcessedEvent reports whether the event id is already in the ledger
func (r *orderRepository) HasProcessedEvent(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM gateway_events WHERE event_id = $1)
	`, eventID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check gateway event: %w", err)
	}
	return exists, nil
}

// ApplyEvent records the event and applies update to the order in one transaction.
// A rejected transition still commits the ledger row, marked ignored, and returns
// the *models.TransitionError.
func (r *orderRepository) ApplyEvent(
	ctx context.Context,
	record *models.GatewayEventRecord,
	orderID uuid.UUID,
	update models.OrderUpdate,
) (*models.Order, error) {
	var (
		updated  *models.Order
		rejected *models.TransitionError
	)
	now := time.Now().UTC()

	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		var locked uuid.UUID
		err := tx.QueryRowContext(ctx, `SELECT id FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&locked)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("order %s: %w", orderID, models.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to lock order: %w", err)
		}

		record.OrderID = &orderID
		record.Outcome = models.EventOutcomeApplied
		if err := insertEvent(ctx, tx, record, now); err != nil {
			return err
		}

		order, err := updateOrder(ctx, tx, orderID, update, now)
		if errors.As(err, &rejected) {
			record.Outcome = models.EventOutcomeIgnored
			_, err = tx.ExecContext(ctx, `
				UPDATE gateway_events SET outcome = $2 WHERE event_id = $1
			`, record.EventID, record.Outcome)
			if err != nil {
				return fmt.Errorf("failed to mark gateway event ignored: %w", err)
			}
			return nil
		}
		if err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	if rejected != nil {
		return nil, rejected
	}
	return updated, nil
}

// RecordEvent inserts a ledger row without touching any order
func (r *orderRepository) RecordEvent(ctx context.Context, record *models.GatewayEventRecord) error {
	return insertEvent(ctx, r.db, record, time.Now().UTC())
}

func insertEvent(ctx context.Context, q db.DBTX, record *models.GatewayEventRecord, now time.Time) error {
	if record.ProcessedAt.IsZero() {
		record.ProcessedAt = now
	}

	var eventID string
	err := q.QueryRowContext(ctx, `
		INSERT INTO gateway_events (event_id, event_type, order_id, outcome, processed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (event_id) DO NOTHING
		RETURNING event_id
	`, record.EventID, record.EventType, record.OrderID, record.Outcome, record.ProcessedAt).Scan(&eventID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("event %s: %w", record.EventID, models.ErrEventAlreadyProcessed)
	}
	if err != nil {
		return fmt.Errorf("failed to record gateway event: %w", err)
	}
	return nil
}

// DeleteExpiredClaims removes claims whose window ended before now
func (r *orderRepository) DeleteExpiredClaims(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM idempotency_claims WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired claims: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted claims: %w", err)
	}
	return count, nil
}

func (r *orderRepository) getOne(ctx context.Context, query string, args ...any) (*models.Order, error) {
	order, err := scanOrder(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	return order, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var order models.Order
	err := row.Scan(
		&order.ID,
		&order.SubjectID,
		&order.ProductID,
		&order.Plan,
		&order.AmountCents,
		&order.Currency,
		&order.Status,
		&order.IdempotencyKey,
		&order.ClientIdempotencyKey,
		&order.ExternalSessionID,
		&order.ExternalSubscriptionID,
		&order.ExternalCustomerID,
		&order.CheckoutURL,
		&order.PaymentMethod,
		&order.CustomerEmail,
		&order.FailureReason,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
