package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/benx421/subscription-checkout/internal/config"
	"github.com/benx421/subscription-checkout/internal/db"
	"github.com/benx421/subscription-checkout/internal/gateway"
	"github.com/benx421/subscription-checkout/internal/repository"
	"github.com/benx421/subscription-checkout/internal/service"
)

// loadConfig reads the environment and installs the configured logger as default
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// openStore returns the configured order store and a function that releases it
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (service.OrderStore, func(), error) {
	if cfg.Database.Driver == "memory" {
		logger.Warn("using in-memory order store; orders are lost on restart")
		return repository.NewMemoryStore(), func() {}, nil
	}

	database, err := connectPostgres(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(); err != nil {
			_ = database.Close()
			return nil, nil, err
		}
	}

	closeDB := func() {
		if err := database.Close(); err != nil {
			logger.Warn("failed to close database", "error", err)
		}
	}
	return repository.NewOrderRepository(database), closeDB, nil
}

func connectPostgres(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*db.DB, error) {
	if cfg.Database.Driver != "postgres" {
		return nil, fmt.Errorf("store driver %q has no database to connect to", cfg.Database.Driver)
	}
	return db.Connect(ctx, &cfg.Database, logger)
}

// paymentGateway is everything the service needs from a provider
type paymentGateway interface {
	gateway.Client
	gateway.EventVerifier
}

func newGateway(cfg *config.GatewayConfig, logger *slog.Logger) paymentGateway {
	if cfg.Provider == "stripe" {
		return gateway.NewStripeClient(cfg.SecretKey, cfg.WebhookSecret, cfg.Timeout)
	}

	logger.Warn("using simulated payment gateway",
		"failure_rate", cfg.FailureRate,
		"min_latency_ms", cfg.MinLatencyMS,
		"max_latency_ms", cfg.MaxLatencyMS,
	)
	return gateway.NewSimulatedClient(cfg.WebhookSecret, gateway.FaultConfig{
		FailureRate:  cfg.FailureRate,
		MinLatencyMS: cfg.MinLatencyMS,
		MaxLatencyMS: cfg.MaxLatencyMS,
	}, logger)
}
