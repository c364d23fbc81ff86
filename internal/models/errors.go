package models

import (
	"errors"
	"fmt"
)

// Domain errors that can be returned by repositories
var (
	// ErrNotFound indicates the requested entity was not found
	ErrNotFound = errors.New("not found")

	// ErrDuplicateOrderID indicates a generated order id collided with an existing row
	ErrDuplicateOrderID = errors.New("duplicate order id")

	// ErrInvalidTransition indicates the status whitelist rejected an update
	ErrInvalidTransition = errors.New("invalid order status transition")

	// ErrEventAlreadyProcessed indicates the gateway event id is already in the ledger
	ErrEventAlreadyProcessed = errors.New("gateway event already processed")

	// ErrClaimSubjectMismatch indicates an idempotency key is held by a different subject
	ErrClaimSubjectMismatch = errors.New("idempotency claim belongs to a different subject")
)

// TransitionError describes a rejected status change
type TransitionError struct {
	From OrderStatus
	To   *OrderStatus
}

func (e *TransitionError) Error() string {
	if e.To == nil {
		return fmt.Sprintf("order in status %s cannot be modified", e.From)
	}
	return fmt.Sprintf("order cannot move from %s to %s", e.From, *e.To)
}

// Unwrap lets errors.Is match ErrInvalidTransition
func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
