package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/benx421/subscription-checkout/internal/api"
	"github.com/benx421/subscription-checkout/internal/service"
)

const (
	maxWebhookBodyBytes = 1 << 20
	signatureHeader     = "Stripe-Signature"
	altSignatureHeader  = "X-Gateway-Signature"
)

// ReceiveGatewayWebhook handles POST /api/v1/webhooks/gateway.
// Any 2xx tells the provider to stop redelivering, so only verification and
// store failures answer otherwise.
func (h *Handler) ReceiveGatewayWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, api.ErrorCodeInvalidPayload, "webhook body too large", 0)
			return
		}
		h.writeError(w, http.StatusBadRequest, api.ErrorCodeInvalidPayload, "failed to read webhook body", 0)
		return
	}

	signature := r.Header.Get(signatureHeader)
	if signature == "" {
		signature = r.Header.Get(altSignatureHeader)
	}

	result, err := h.eventHandler.HandleEvent(r.Context(), payload, signature)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toWebhookResponse(result))
}

func toWebhookResponse(result *service.ReconcileResult) api.WebhookResponse {
	resp := api.WebhookResponse{
		Received: true,
		Status:   string(result.Status),
		OrderID:  result.OrderID,
	}
	if result.EventID != "" {
		id := result.EventID
		resp.EventID = &id
	}
	return resp
}
