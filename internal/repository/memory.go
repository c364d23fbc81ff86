package repository

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/benx421/subscription-checkout/internal/models"
	"github.com/google/uuid"
)

// MemoryStore is an in-process OrderRepository. The mutex plays the role of the
// database row locks, so every method is atomic with respect to the others.
type MemoryStore struct {
	orders map[uuid.UUID]*models.Order
	claims map[string]*models.IdempotencyClaim
	events map[string]*models.GatewayEventRecord
	now    func() time.Time
	mu     sync.Mutex
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders: make(map[uuid.UUID]*models.Order),
		claims: make(map[string]*models.IdempotencyClaim),
		events: make(map[string]*models.GatewayEventRecord),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the clock used for updated_at and processed_at
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

// PingContext always succeeds
func (s *MemoryStore) PingContext(ctx context.Context) error {
	return ctx.Err()
}

// TryClaim inserts the claim and its order together, or returns the order already holding the key
func (s *MemoryStore) TryClaim(ctx context.Context, claim *models.IdempotencyClaim, order *models.Order) (*models.ClaimResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.claims[claim.Key]; ok {
		if existing.SubjectID != claim.SubjectID {
			return nil, models.ErrClaimSubjectMismatch
		}
		held, ok := s.orders[existing.OrderID]
		if !ok {
			return nil, fmt.Errorf("idempotency claim %s has no order: %w", claim.Key, models.ErrNotFound)
		}
		return &models.ClaimResult{Order: cloneOrder(held), Claimed: false}, nil
	}

	if _, ok := s.orders[order.ID]; ok {
		return nil, fmt.Errorf("order %s: %w", order.ID, models.ErrDuplicateOrderID)
	}

	claim.OrderID = order.ID
	stored := *claim
	s.claims[claim.Key] = &stored
	s.orders[order.ID] = cloneOrder(order)

	return &models.ClaimResult{Order: cloneOrder(order), Claimed: true}, nil
}

// CreateOrder inserts a standalone order
func (s *MemoryStore) CreateOrder(ctx context.Context, order *models.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[order.ID]; ok {
		return fmt.Errorf("order %s: %w", order.ID, models.ErrDuplicateOrderID)
	}
	s.orders[order.ID] = cloneOrder(order)
	return nil
}

// UpdateOrder applies update only when the current status allows it
func (s *MemoryStore) UpdateOrder(ctx context.Context, id uuid.UUID, update models.OrderUpdate) (*models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateLocked(id, update)
}

func (s *MemoryStore) updateLocked(id uuid.UUID, update models.OrderUpdate) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, models.ErrNotFound)
	}
	if !slices.Contains(update.AllowedFrom(), order.Status) {
		return nil, &models.TransitionError{From: order.Status, To: update.Status}
	}
	if err := s.checkExternalIDsLocked(id, update); err != nil {
		return nil, err
	}

	update.Apply(order, s.now())
	return cloneOrder(order), nil
}

// checkExternalIDsLocked mirrors the partial unique indexes on session and subscription ids
func (s *MemoryStore) checkExternalIDsLocked(id uuid.UUID, update models.OrderUpdate) error {
	for otherID, other := range s.orders {
		if otherID == id {
			continue
		}
		if update.ExternalSessionID != nil && other.ExternalSessionID != nil &&
			*update.ExternalSessionID == *other.ExternalSessionID {
			return fmt.Errorf("order %s: session %s already attached to another order", id, *update.ExternalSessionID)
		}
		if update.ExternalSubscriptionID != nil && other.ExternalSubscriptionID != nil &&
			*update.ExternalSubscriptionID == *other.ExternalSubscriptionID {
			return fmt.Errorf("order %s: subscription %s already attached to another order", id, *update.ExternalSubscriptionID)
		}
	}
	return nil
}

// GetByID retrieves an order by its UUID
func (s *MemoryStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.find(ctx, func(o *models.Order) bool { return o.ID == id })
}

// GetByExternalSessionID retrieves the order a gateway checkout session belongs to
func (s *MemoryStore) GetByExternalSessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	return s.find(ctx, func(o *models.Order) bool {
		return o.ExternalSessionID != nil && *o.ExternalSessionID == sessionID
	})
}

// GetByExternalSubscriptionID retrieves the order a gateway subscription belongs to
func (s *MemoryStore) GetByExternalSubscriptionID(ctx context.Context, subscriptionID string) (*models.Order, error) {
	return s.find(ctx, func(o *models.Order) bool {
		return o.ExternalSubscriptionID != nil && *o.ExternalSubscriptionID == subscriptionID
	})
}

// GetActiveBySubject returns the most recent order granting access at now
func (s *MemoryStore) GetActiveBySubject(ctx context.Context, subjectID string, now time.Time) (*models.Order, error) {
	orders, err := s.ListBySubject(ctx, subjectID, 0)
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		if o.IsActiveAt(now) {
			return o, nil
		}
	}
	return nil, models.ErrNotFound
}

// ListBySubject returns a subject's orders, newest first. A limit of zero or less means no limit.
func (s *MemoryStore) ListBySubject(ctx context.Context, subjectID string, limit int) ([]*models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	var orders []*models.Order
	for _, o := range s.orders {
		if o.SubjectID == subjectID {
			orders = append(orders, cloneOrder(o))
		}
	}
	s.mu.Unlock()

	slices.SortFunc(orders, func(a, b *models.Order) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})

	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

// ListStalePending returns pending orders created before the cutoff, oldest first
func (s *MemoryStore) ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]*models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	var orders []*models.Order
	for _, o := range s.orders {
		if o.Status == models.OrderStatusPending && o.CreatedAt.Before(createdBefore) {
			orders = append(orders, cloneOrder(o))
		}
	}
	s.mu.Unlock()

	slices.SortFunc(orders, func(a, b *models.Order) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})

	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

// HasProcessedEvent reports whether the event id is already in the ledger
func (s *MemoryStore) HasProcessedEvent(ctx context.Context, eventID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.events[eventID]
	return ok, nil
}

// ApplyEvent records the event and applies update atomically. A rejected
// transition still records the event as ignored.
func (s *MemoryStore) ApplyEvent(
	ctx context.Context,
	record *models.GatewayEventRecord,
	orderID uuid.UUID,
	update models.OrderUpdate,
) (*models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[record.EventID]; ok {
		return nil, fmt.Errorf("event %s: %w", record.EventID, models.ErrEventAlreadyProcessed)
	}
	if _, ok := s.orders[orderID]; !ok {
		return nil, fmt.Errorf("order %s: %w", orderID, models.ErrNotFound)
	}

	record.OrderID = &orderID
	order, err := s.updateLocked(orderID, update)
	var rejected *models.TransitionError
	switch {
	case err == nil:
		record.Outcome = models.EventOutcomeApplied
	case errors.As(err, &rejected):
		record.Outcome = models.EventOutcomeIgnored
	default:
		return nil, err
	}

	s.insertEventLocked(record)
	if rejected != nil {
		return nil, rejected
	}
	return order, nil
}

// RecordEvent inserts a ledger row without touching any order
func (s *MemoryStore) RecordEvent(ctx context.Context, record *models.GatewayEventRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[record.EventID]; ok {
		return fmt.Errorf("event %s: %w", record.EventID, models.ErrEventAlreadyProcessed)
	}
	s.insertEventLocked(record)
	return nil
}

func (s *MemoryStore) insertEventLocked(record *models.GatewayEventRecord) {
	if record.ProcessedAt.IsZero() {
		record.ProcessedAt = s.now()
	}
	stored := *record
	s.events[record.EventID] = &stored
}

// Event returns a copy of a ledger row, for inspection in tests and tooling
func (s *MemoryStore) Event(eventID string) (*models.GatewayEventRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.events[eventID]
	if !ok {
		return nil, false
	}
	out := *record
	return &out, true
}

// Claim returns a copy of a claim row
func (s *MemoryStore) Claim(key string) (*models.IdempotencyClaim, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	claim, ok := s.claims[key]
	if !ok {
		return nil, false
	}
	out := *claim
	return &out, true
}

// DeleteExpiredClaims removes claims whose window ended before now
func (s *MemoryStore) DeleteExpiredClaims(ctx context.Context, now time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for key, claim := range s.claims {
		if claim.ExpiresAt.Before(now) {
			delete(s.claims, key)
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) find(ctx context.Context, match func(*models.Order) bool) (*models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range s.orders {
		if match(o) {
			return cloneOrder(o), nil
		}
	}
	return nil, models.ErrNotFound
}

func cloneOrder(o *models.Order) *models.Order {
	out := *o
	return &out
}

var _ OrderRepository = (*MemoryStore)(nil)
