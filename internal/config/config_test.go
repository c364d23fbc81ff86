package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, time.Minute, cfg.Checkout.IdempotencyWindow)
	assert.Equal(t, "simulated", cfg.Gateway.Provider)
	assert.Equal(t, []string{"log"}, cfg.Notifier.Drivers)
	assert.Len(t, cfg.Checkout.Catalog, 2)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("IDEMPOTENCY_WINDOW", "2m")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("NOTIFIER_DRIVERS", "log, nats ,redis")
	t.Setenv("CATALOG_JSON", `[{"id":"weekly","plan":"pro_weekly","amount_cents":299,"currency":"EUR"}]`)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Minute, cfg.Checkout.IdempotencyWindow)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, []string{"log", "nats", "redis"}, cfg.Notifier.Drivers)
	require.Len(t, cfg.Checkout.Catalog, 1)
	assert.Equal(t, "weekly", cfg.Checkout.Catalog[0].ID)
	assert.Equal(t, int64(299), cfg.Checkout.Catalog[0].AmountCents)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad store driver", "STORE_DRIVER", "mongo"},
		{"bad gateway provider", "GATEWAY_PROVIDER", "paypal"},
		{"stripe without key", "GATEWAY_PROVIDER", "stripe"},
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"bad notifier", "NOTIFIER_DRIVERS", "log,kafka"},
		{"http notifier without url", "NOTIFIER_DRIVERS", "http"},
		{"failure rate out of range", "GATEWAY_FAILURE_RATE", "1.5"},
		{"window too short", "IDEMPOTENCY_WINDOW", "10ms"},
		{"stale threshold within window", "PENDING_STALE_AFTER", "30s"},
		{"malformed catalog", "CATALOG_JSON", "{not json"},
		{"catalog without amount", "CATALOG_JSON", `[{"id":"x","plan":"p","currency":"USD"}]`},
		{"catalog with bad interval", "CATALOG_JSON", `[{"id":"x","plan":"p","currency":"USD","amount_cents":100,"interval":"fortnight"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestDatabaseConfig_DSNAndURL(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "checkout", SSLMode: "disable"}

	assert.Equal(t, "host=db port=5432 user=u password=p dbname=checkout sslmode=disable", c.DSN())
	assert.Equal(t, "postgres://u:p@db:5432/checkout?sslmode=disable", c.URL())
}

func TestParseLogLevel(t *testing.T) {
	logger := (&LoggerConfig{Level: "debug"}).NewLogger()
	assert.NotNil(t, logger)
	assert.Equal(t, "INFO", parseLogLevel("nonsense").String())
	assert.Equal(t, "WARN", parseLogLevel("warning").String())
}
