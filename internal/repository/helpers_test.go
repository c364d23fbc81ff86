package repository

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/benx421/subscription-checkout/internal/config"
	"github.com/benx421/subscription-checkout/internal/db"
	"github.com/benx421/subscription-checkout/internal/models"
	"github.com/google/uuid"
)

func setupTestDB(t *testing.T) *db.DB {
	t.Helper()

	if os.Getenv("TEST_DATABASE") != "1" {
		t.Skip("set TEST_DATABASE=1 to run repository tests against PostgreSQL")
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	logger := cfg.Logger.NewLogger()

	database, err := db.Connect(context.Background(), &cfg.Database, logger)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	if err := database.Migrate(); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return database
}

func cleanupTestDB(t *testing.T, database *db.DB) {
	t.Helper()
	if err := database.Close(); err != nil {
		log.Printf("failed to close test database: %v", err)
	}
}

func truncateTables(t *testing.T, database *db.DB) {
	t.Helper()

	_, err := database.ExecContext(context.Background(),
		"TRUNCATE TABLE gateway_events, idempotency_claims, orders CASCADE")
	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}

// storeFactories lets the same behavioural tests run against every OrderRepository
func storeFactories(t *testing.T) map[string]func(t *testing.T) OrderRepository {
	t.Helper()

	return map[string]func(t *testing.T) OrderRepository{
		"memory": func(t *testing.T) OrderRepository {
			return NewMemoryStore()
		},
		"postgres": func(t *testing.T) OrderRepository {
			database := setupTestDB(t)
			t.Cleanup(func() { cleanupTestDB(t, database) })
			truncateTables(t, database)
			return NewOrderRepository(database)
		},
	}
}

func newPendingOrder(subjectID, key string, createdAt time.Time) *models.Order {
	return &models.Order{
		ID:             uuid.New(),
		SubjectID:      subjectID,
		ProductID:      "monthly",
		Plan:           "pro_monthly",
		AmountCents:    999,
		Currency:       "USD",
		Status:         models.OrderStatusPending,
		IdempotencyKey: key,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}
}

func newClaim(subjectID, key string, createdAt time.Time) *models.IdempotencyClaim {
	return &models.IdempotencyClaim{
		Key:       key,
		SubjectID: subjectID,
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(time.Minute),
	}
}

func statusPtr(s models.OrderStatus) *models.OrderStatus {
	return &s
}

func strPtr(s string) *string {
	return &s
}
