package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/benx421/subscription-checkout/internal/api"
	"github.com/benx421/subscription-checkout/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

const webhookPath = "/api/v1/webhooks/gateway"

// NewRouter creates and configures the HTTP router with all routes and middleware.
func NewRouter(h *Handler, logger *slog.Logger) (http.Handler, error) {
	doc, err := api.GetSwagger()
	if err != nil {
		return nil, err
	}
	// Webhook bodies must reach signature verification byte for byte.
	validator, err := middleware.OpenAPIValidator(doc, logger, webhookPath)
	if err != nil {
		return nil, fmt.Errorf("failed to build request validator: %w", err)
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.ClientIdempotencyKey(logger))
	r.Use(validator)

	api.RegisterDocsRoutes(r)
	r.Get("/health", h.GetHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", h.ListProducts)
		r.Post("/checkouts", h.CreateCheckout)
		r.Post("/webhooks/gateway", h.ReceiveGatewayWebhook)
		r.Get("/orders/{orderId}", h.GetOrder)
		r.Get("/subjects/{subjectId}/orders", h.GetSubjectOrders)
		r.Get("/subjects/{subjectId}/orders/{orderId}", h.GetSubjectOrder)

		if h.simulator != nil {
			r.Post("/simulator/sessions/{sessionId}/complete", h.CompleteSimulatedSession)
		}
	})

	return r, nil
}
