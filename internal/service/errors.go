package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ServiceError represents a business logic error with a code
type ServiceError struct {
	Err     error
	OrderID *uuid.UUID
	Message string
	Code    string
	// RetryAfter is a hint for when the same request may succeed, zero if none.
	RetryAfter time.Duration
	Retryable  bool
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeInvalidRequest     = "invalid_request"
	ErrCodeInvalidProduct     = "invalid_product"
	ErrCodeCheckoutConflict   = "checkout_conflict"
	ErrCodeCheckoutIncomplete = "checkout_incomplete"
	ErrCodeGatewayRejected    = "gateway_rejected"
	ErrCodeGatewayUnavailable = "gateway_unavailable"
	ErrCodeStoreUnavailable   = "store_unavailable"
	ErrCodeInvalidSignature   = "invalid_signature"
	ErrCodeInvalidPayload     = "invalid_payload"
	ErrCodeOrderNotFound      = "order_not_found"
	ErrCodeClaimMismatch      = "claim_mismatch"
	ErrCodeInternalError      = "internal_error"
)

func storeUnavailable(message string, err error) *ServiceError {
	return &ServiceError{
		Code:      ErrCodeStoreUnavailable,
		Message:   message,
		Err:       err,
		Retryable: true,
	}
}
