package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/benx421/subscription-checkout/internal/models"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Database DatabaseConfig
	Checkout CheckoutConfig
	Gateway  GatewayConfig
	Notifier NotifierConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Driver          string // postgres, memory
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	ConnMaxLifetime time.Duration
	MaxOpenConns    int
	MaxIdleConns    int
	AutoMigrate     bool
}

// CheckoutConfig holds idempotency and catalog settings
type CheckoutConfig struct {
	IdempotencyWindow  time.Duration
	ClaimSweepInterval time.Duration
	PendingStaleAfter  time.Duration
	Catalog            []models.Product
}

// GatewayConfig holds payment gateway settings
type GatewayConfig struct {
	Provider      string // stripe, simulated
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
	Timeout       time.Duration
	// Failure injection for the simulated gateway.
	FailureRate  float64
	MinLatencyMS int
	MaxLatencyMS int
}

// NotifierConfig holds downstream notification settings
type NotifierConfig struct {
	Drivers      []string // log, http, nats, redis
	HTTPURL      string
	HTTPTimeout  time.Duration
	NATSURL      string
	NATSSubject  string
	RedisAddr    string
	RedisDB      int
	RedisChannel string
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level string // debug, info, warn, error
}

var defaultCatalog = []models.Product{
	{ID: "monthly", Plan: "pro_monthly", AmountCents: 999, Currency: "USD", Interval: "month"},
	{ID: "yearly", Plan: "pro_yearly", AmountCents: 9999, Currency: "USD", Interval: "year"},
}

// Load loads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	catalog, err := getEnvAsCatalog("CATALOG_JSON", defaultCatalog)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", "15s"),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", "30s"),
			IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", "60s"),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("STORE_DRIVER", "postgres"),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			DBName:          getEnv("DB_NAME", "checkout"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", "5m"),
			AutoMigrate:     getEnvAsBool("DB_AUTO_MIGRATE", false),
		},
		Checkout: CheckoutConfig{
			IdempotencyWindow:  getEnvAsDuration("IDEMPOTENCY_WINDOW", "60s"),
			ClaimSweepInterval: getEnvAsDuration("CLAIM_SWEEP_INTERVAL", "5m"),
			PendingStaleAfter:  getEnvAsDuration("PENDING_STALE_AFTER", "1h"),
			Catalog:            catalog,
		},
		Gateway: GatewayConfig{
			Provider:      getEnv("GATEWAY_PROVIDER", "simulated"),
			SecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: getEnv("WEBHOOK_SECRET", "whsec_local_development"),
			SuccessURL:    getEnv("CHECKOUT_SUCCESS_URL", "http://localhost:8080/checkout/success"),
			CancelURL:     getEnv("CHECKOUT_CANCEL_URL", "http://localhost:8080/checkout/cancel"),
			Timeout:       getEnvAsDuration("GATEWAY_TIMEOUT", "10s"),
			FailureRate:   getEnvAsFloat("GATEWAY_FAILURE_RATE", 0),
			MinLatencyMS:  getEnvAsInt("GATEWAY_MIN_LATENCY_MS", 0),
			MaxLatencyMS:  getEnvAsInt("GATEWAY_MAX_LATENCY_MS", 0),
		},
		Notifier: NotifierConfig{
			Drivers:      getEnvAsList("NOTIFIER_DRIVERS", "log"),
			HTTPURL:      getEnv("NOTIFIER_HTTP_URL", ""),
			HTTPTimeout:  getEnvAsDuration("NOTIFIER_HTTP_TIMEOUT", "5s"),
			NATSURL:      getEnv("NATS_URL", "nats://127.0.0.1:4222"),
			NATSSubject:  getEnv("NATS_SUBJECT", "orders.terminal.v1"),
			RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
			RedisDB:      getEnvAsInt("REDIS_DB", 0),
			RedisChannel: getEnv("REDIS_CHANNEL", "orders:terminal"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}

	switch c.Database.Driver {
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database host cannot be empty")
		}
		if c.Database.DBName == "" {
			return fmt.Errorf("database name cannot be empty")
		}
	case "memory":
	default:
		return fmt.Errorf("invalid store driver: %s (must be postgres or memory)", c.Database.Driver)
	}

	if c.Checkout.IdempotencyWindow < time.Second {
		return fmt.Errorf("idempotency window must be at least 1s, got %s", c.Checkout.IdempotencyWindow)
	}
	if c.Checkout.PendingStaleAfter <= c.Checkout.IdempotencyWindow {
		return fmt.Errorf("pending stale threshold must exceed the idempotency window")
	}
	if len(c.Checkout.Catalog) == 0 {
		return fmt.Errorf("catalog cannot be empty")
	}
	for _, p := range c.Checkout.Catalog {
		if p.ID == "" || p.Plan == "" || p.Currency == "" {
			return fmt.Errorf("catalog product must have id, plan and currency")
		}
		if p.AmountCents <= 0 {
			return fmt.Errorf("catalog product %s must have a positive amount", p.ID)
		}
		switch p.Interval {
		case "", "day", "week", "month", "year":
		default:
			return fmt.Errorf("catalog product %s has invalid interval: %s", p.ID, p.Interval)
		}
	}

	switch c.Gateway.Provider {
	case "stripe":
		if c.Gateway.SecretKey == "" {
			return fmt.Errorf("stripe secret key cannot be empty")
		}
	case "simulated":
	default:
		return fmt.Errorf("invalid gateway provider: %s (must be stripe or simulated)", c.Gateway.Provider)
	}
	if c.Gateway.WebhookSecret == "" {
		return fmt.Errorf("webhook secret cannot be empty")
	}
	if c.Gateway.FailureRate < 0 || c.Gateway.FailureRate > 1 {
		return fmt.Errorf("failure rate must be between 0 and 1, got %f", c.Gateway.FailureRate)
	}
	if c.Gateway.MinLatencyMS < 0 {
		return fmt.Errorf("min latency cannot be negative")
	}
	if c.Gateway.MaxLatencyMS < c.Gateway.MinLatencyMS {
		return fmt.Errorf("max latency (%d) must be >= min latency (%d)", c.Gateway.MaxLatencyMS, c.Gateway.MinLatencyMS)
	}

	validDrivers := map[string]bool{"log": true, "http": true, "nats": true, "redis": true}
	for _, d := range c.Notifier.Drivers {
		if !validDrivers[d] {
			return fmt.Errorf("invalid notifier driver: %s (must be log, http, nats, or redis)", d)
		}
		if d == "http" && c.Notifier.HTTPURL == "" {
			return fmt.Errorf("notifier http url cannot be empty when http driver is enabled")
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	return nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// URL returns the PostgreSQL connection string in URL form, as expected by migrate
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to parsing the default if provided value is invalid
		duration, err = time.ParseDuration(defaultValue)
		if err != nil {
			return 0
		}
	}
	return duration
}

func getEnvAsList(key, defaultValue string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, defaultValue), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvAsCatalog(key string, defaultValue []models.Product) ([]models.Product, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	var products []models.Product
	if err := json.Unmarshal([]byte(valueStr), &products); err != nil {
		return nil, fmt.Errorf("parse %s: %w", key, err)
	}
	return products, nil
}
