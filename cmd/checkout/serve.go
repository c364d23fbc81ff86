package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/benx421/subscription-checkout/internal/gateway"
	"github.com/benx421/subscription-checkout/internal/handlers"
	"github.com/benx421/subscription-checkout/internal/idempotency"
	"github.com/benx421/subscription-checkout/internal/notifier"
	"github.com/benx421/subscription-checkout/internal/service"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var noSweeper bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the checkout API server",
		Long: `Start the checkout API server.

Configuration is read from the environment (PORT, STORE_DRIVER, DB_*,
GATEWAY_PROVIDER, STRIPE_SECRET_KEY, WEBHOOK_SECRET, NOTIFIER_DRIVERS, ...).
Unless --no-sweeper is set, the server also purges expired idempotency claims
and settles stale pending orders in the background.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(noSweeper)
		},
	}

	cmd.Flags().BoolVar(&noSweeper, "no-sweeper", false, "do not run the background sweeper")
	return cmd
}

func runServe(noSweeper bool) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	logger.Info("starting checkout api",
		"port", cfg.Server.Port,
		"log_level", cfg.Logger.Level,
		"store", cfg.Database.Driver,
		"gateway", cfg.Gateway.Provider,
		"idempotency_window", cfg.Checkout.IdempotencyWindow,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	fanout, closeNotifiers, err := notifier.FromConfig(ctx, &cfg.Notifier, logger)
	if err != nil {
		return err
	}
	defer closeNotifiers()

	gw := newGateway(&cfg.Gateway, logger)
	catalog := service.NewCatalog(cfg.Checkout.Catalog)

	checkoutService := service.NewCheckoutService(
		store,
		gw,
		catalog,
		idempotency.NewDeriver(cfg.Checkout.IdempotencyWindow),
		service.RedirectURLs{SuccessURL: cfg.Gateway.SuccessURL, CancelURL: cfg.Gateway.CancelURL},
		cfg.Gateway.Timeout,
		logger,
	)
	reconciler := service.NewReconcilerService(store, gw, fanout, logger)
	query := service.NewQueryService(store)

	handler := handlers.NewHandler(checkoutService, reconciler, query, catalog, store, logger)
	if simulated, ok := gw.(*gateway.SimulatedClient); ok {
		handler = handler.WithSimulator(simulated)
	}

	router, err := handlers.NewRouter(handler, logger)
	if err != nil {
		return err
	}

	if !noSweeper {
		sweeper := service.NewSweeper(store, gw, fanout, cfg.Checkout.PendingStaleAfter, logger)
		go sweeper.Run(ctx, cfg.Checkout.ClaimSweepInterval)
	}

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("server failed", "error", err)
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
	return nil
}
