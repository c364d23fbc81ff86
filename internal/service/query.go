package service

import (
	"context"
	"errors"
	"time"

	"github.com/benx421/subscription-checkout/internal/models"
	"github.com/google/uuid"
)

// History page sizes
const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// SubjectOrders is a subject's entitlement and purchase history
type SubjectOrders struct {
	ActiveOrder *models.Order
	SubjectID   string
	Orders      []*models.Order
	HasActive   bool
}

// QueryService serves read-only order lookups
type QueryService struct {
	store OrderStore
	now   func() time.Time
}

// NewQueryService creates a new QueryService
func NewQueryService(store OrderStore) *QueryService {
	return &QueryService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source
func (s *QueryService) WithClock(now func() time.Time) *QueryService {
	s.now = now
	return s
}

// GetOrder returns one order by id
func (s *QueryService) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.store.GetByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, &ServiceError{
			Code:    ErrCodeOrderNotFound,
			Message: "order not found",
		}
	}
	if err != nil {
		return nil, storeUnavailable("failed to load order", err)
	}
	return order, nil
}

// GetSubjectOrder returns one order only if it belongs to subjectID. Another
// subject's order is reported as not found.
func (s *QueryService) GetSubjectOrder(ctx context.Context, subjectID string, id uuid.UUID) (*models.Order, error) {
	if err := ValidateSubjectID(subjectID); err != nil {
		return nil, &ServiceError{Code: ErrCodeInvalidRequest, Message: err.Error()}
	}

	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.SubjectID != subjectID {
		return nil, &ServiceError{
			Code:    ErrCodeOrderNotFound,
			Message: "order not found",
		}
	}
	return order, nil
}

// GetSubjectOrders returns whether the subject currently holds an active
// subscription, plus its most recent orders
func (s *QueryService) GetSubjectOrders(ctx context.Context, subjectID string, limit int) (*SubjectOrders, error) {
	if err := ValidateSubjectID(subjectID); err != nil {
		return nil, &ServiceError{Code: ErrCodeInvalidRequest, Message: err.Error()}
	}
	if limit == 0 {
		limit = DefaultHistoryLimit
	}
	if err := ValidateListLimit(limit); err != nil {
		return nil, &ServiceError{Code: ErrCodeInvalidRequest, Message: err.Error()}
	}

	out := &SubjectOrders{SubjectID: subjectID}

	active, err := s.store.GetActiveBySubject(ctx, subjectID, s.now())
	switch {
	case err == nil:
		out.ActiveOrder = active
		out.HasActive = true
	case errors.Is(err, models.ErrNotFound):
	default:
		return nil, storeUnavailable("failed to load active order", err)
	}

	orders, err := s.store.ListBySubject(ctx, subjectID, limit)
	if err != nil {
		return nil, storeUnavailable("failed to list orders", err)
	}
	out.Orders = orders

	return out, nil
}
