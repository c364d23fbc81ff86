package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/benx421/subscription-checkout/internal/api"
	"github.com/benx421/subscription-checkout/internal/middleware"
	"github.com/benx421/subscription-checkout/internal/service"
)

const maxCheckoutBodyBytes = 64 << 10

// CreateCheckout handles POST /api/v1/checkouts
func (h *Handler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	var body api.CheckoutRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCheckoutBodyBytes)).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, api.ErrorCodeInvalidRequest, "request body must be a JSON object", 0)
		return
	}

	result, err := h.checkoutService.CreateCheckout(r.Context(), service.CheckoutRequest{
		SubjectID:            body.SubjectID,
		ProductID:            body.ProductID,
		PaymentMethod:        optionalString(body.PaymentMethod),
		CustomerEmail:        optionalString(body.CustomerEmail),
		SuccessURL:           optionalString(body.SuccessURL),
		CancelURL:            optionalString(body.CancelURL),
		ClientIdempotencyKey: middleware.ClientKeyFrom(r.Context()),
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	resp := api.CheckoutResponse{
		OrderID:        result.Order.ID,
		Status:         string(result.Order.Status),
		Outcome:        string(result.Outcome),
		IdempotencyKey: result.Order.IdempotencyKey,
	}
	if result.CheckoutURL != "" {
		url := result.CheckoutURL
		resp.CheckoutURL = &url
	}

	status := http.StatusOK
	switch result.Outcome {
	case service.CheckoutCreated:
		status = http.StatusCreated
	case service.CheckoutInProgress:
		status = http.StatusAccepted
		if result.RetryAfter > 0 {
			seconds := setRetryAfter(w, result.RetryAfter)
			resp.RetryAfterSeconds = &seconds
		}
	}

	h.writeJSON(w, status, resp)
}
