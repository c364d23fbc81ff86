package handlers

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/benx421/subscription-checkout/internal/api"
	"github.com/benx421/subscription-checkout/internal/models"
	"github.com/benx421/subscription-checkout/internal/service"
)

func mapServiceErrorToCode(code string) (api.ErrorCode, int) {
	switch code {
	case service.ErrCodeInvalidRequest:
		return api.ErrorCodeInvalidRequest, http.StatusBadRequest
	case service.ErrCodeInvalidProduct:
		return api.ErrorCodeInvalidProduct, http.StatusUnprocessableEntity
	case service.ErrCodeCheckoutConflict:
		return api.ErrorCodeCheckoutConflict, http.StatusConflict
	case service.ErrCodeCheckoutIncomplete:
		return api.ErrorCodeCheckoutIncomplete, http.StatusConflict
	case service.ErrCodeGatewayRejected:
		return api.ErrorCodeGatewayRejected, http.StatusUnprocessableEntity
	case service.ErrCodeGatewayUnavailable:
		return api.ErrorCodeGatewayUnavailable, http.StatusServiceUnavailable
	case service.ErrCodeStoreUnavailable:
		return api.ErrorCodeServiceUnavailable, http.StatusServiceUnavailable
	case service.ErrCodeInvalidSignature:
		return api.ErrorCodeInvalidSignature, http.StatusBadRequest
	case service.ErrCodeInvalidPayload:
		return api.ErrorCodeInvalidPayload, http.StatusBadRequest
	case service.ErrCodeOrderNotFound:
		return api.ErrorCodeNotFound, http.StatusNotFound
	default:
		return api.ErrorCodeInternalError, http.StatusInternalServerError
	}
}

func extractServiceError(err error) *service.ServiceError {
	var svcErr *service.ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return nil
}

// handleServiceError maps service errors to appropriate HTTP responses
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	svcErr := extractServiceError(err)
	if svcErr == nil {
		h.logger.Error("unexpected error", "path", r.URL.Path, "error", err)
		h.writeError(w, http.StatusInternalServerError, api.ErrorCodeInternalError, "an unexpected error occurred", 0)
		return
	}

	code, status := mapServiceErrorToCode(svcErr.Code)
	message := svcErr.Message
	if status == http.StatusInternalServerError {
		h.logger.Error("internal error", "path", r.URL.Path, "code", svcErr.Code, "error", err)
		message = "an unexpected error occurred"
	}

	h.writeError(w, status, code, message, svcErr.RetryAfter)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code api.ErrorCode, message string, retryAfter time.Duration) {
	body := api.Error{Error: code, Message: message}
	if retryAfter > 0 {
		seconds := setRetryAfter(w, retryAfter)
		body.RetryAfterSeconds = &seconds
	}
	h.writeJSON(w, status, body)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// setRetryAfter writes the Retry-After header rounded up to whole seconds
func setRetryAfter(w http.ResponseWriter, d time.Duration) int {
	seconds := int(math.Ceil(d.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	return seconds
}

func toAPIOrder(o *models.Order) api.Order {
	return api.Order{
		OrderID:                o.ID,
		SubjectID:              o.SubjectID,
		ProductID:              o.ProductID,
		Plan:                   o.Plan,
		AmountCents:            o.AmountCents,
		Currency:               o.Currency,
		Status:                 string(o.Status),
		CheckoutURL:            o.CheckoutURL,
		ExternalSessionID:      o.ExternalSessionID,
		ExternalSubscriptionID: o.ExternalSubscriptionID,
		FailureReason:          o.FailureReason,
		ExpiresAt:              o.ExpiresAt,
		CreatedAt:              o.CreatedAt,
		UpdatedAt:              o.UpdatedAt,
	}
}

func optionalString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
