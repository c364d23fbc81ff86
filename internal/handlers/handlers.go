// Package handlers implements HTTP handlers for the checkout API.
package handlers

import (
	"log/slog"

	"github.com/benx421/subscription-checkout/internal/service"
)

// SessionCompleter pays a simulated checkout session and returns the signed webhook
type SessionCompleter interface {
	CompleteSession(sessionID string) (payload []byte, signature string, err error)
}

// Handler serves every API endpoint
type Handler struct {
	checkoutService service.CheckoutCreator
	eventHandler    service.EventHandler
	orderQuerier    service.OrderQuerier
	catalog         service.ProductCatalog
	healthChecker   service.HealthChecker
	simulator       SessionCompleter
	logger          *slog.Logger
}

// NewHandler creates a new Handler with injected service dependencies.
func NewHandler(
	checkoutService service.CheckoutCreator,
	eventHandler service.EventHandler,
	orderQuerier service.OrderQuerier,
	catalog service.ProductCatalog,
	healthChecker service.HealthChecker,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		checkoutService: checkoutService,
		eventHandler:    eventHandler,
		orderQuerier:    orderQuerier,
		catalog:         catalog,
		healthChecker:   healthChecker,
		logger:          logger,
	}
}

// WithSimulator enables the session completion route for the simulated gateway
func (h *Handler) WithSimulator(completer SessionCompleter) *Handler {
	h.simulator = completer
	return h
}
