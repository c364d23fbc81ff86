package handlers

import (
	"net/http"

	"github.com/benx421/subscription-checkout/internal/api"
	"github.com/go-chi/chi/v5"
)

// CompleteSimulatedSession handles POST /api/v1/simulator/sessions/{sessionId}/complete.
// It pays the session and delivers the resulting webhook in-process.
func (h *Handler) CompleteSimulatedSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")

	payload, signature, err := h.simulator.CompleteSession(sessionID)
	if err != nil {
		h.logger.Debug("simulated session completion failed", "session_id", sessionID, "error", err)
		h.writeError(w, http.StatusNotFound, api.ErrorCodeNotFound, "session not found", 0)
		return
	}

	result, err := h.eventHandler.HandleEvent(r.Context(), payload, signature)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toWebhookResponse(result))
}
