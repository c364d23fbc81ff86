package models

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyClaim binds a derived idempotency key to the single order it may produce
type IdempotencyClaim struct {
	CreatedAt time.Time `db:"created_at"`
	ExpiresAt time.Time `db:"expires_at"`
	Key       string    `db:"key"`
	SubjectID string    `db:"subject_id"`
	OrderID   uuid.UUID `db:"order_id"`
}

// ClaimResult is the outcome of a claim attempt.
// Claimed is true when this call inserted the claim and its order.
type ClaimResult struct {
	Order   *Order
	Claimed bool
}
