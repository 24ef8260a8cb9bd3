// Package main provides a CLI tool for seeding the database with an admin
// user and, on request, demo products and orders.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"rimshield/internal/core/id"
	"rimshield/internal/core/types"
	"rimshield/internal/domain/orders"
	"rimshield/internal/infrastructure/storage/postgres"
	"rimshield/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, dbURL)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	if err := pool.Migrate(ctx); err != nil {
		log.Fatalw("failed to apply schema", "error", err)
	}
	log.Info("connected to database")

	if err := seedAdminUser(ctx, pool, log); err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoData(ctx, pool, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding complete")
}

func seedAdminUser(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	email := getEnv("ADMIN_EMAIL", "admin@rimshield.nl")
	password := getEnv("ADMIN_PASSWORD", "admin123")

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO admin_users (id, email, name, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO UPDATE SET password_hash = EXCLUDED.password_hash`,
		id.New(), email, "Administrator", string(hash), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}

	log.Infow("admin user seeded", "email", email)
	return nil
}

func seedDemoData(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	type demoProduct struct {
		sku   string
		name  string
		stock int
	}
	products := []demoProduct{
		{"RS-BLACK-17", "RimShield Set Black 17\"", 120},
		{"RS-SILVER-18", "RimShield Set Silver 18\"", 85},
		{"RS-RED-19", "RimShield Set Red 19\"", 40},
	}

	productIDs := make([]id.ID, len(products))
	for i, p := range products {
		productIDs[i] = id.New()
		_, err := pool.Exec(ctx, `
			INSERT INTO products (id, sku, name, stock)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (sku) DO NOTHING`,
			productIDs[i], p.sku, p.name, p.stock,
		)
		if err != nil {
			return fmt.Errorf("insert product %s: %w", p.sku, err)
		}
	}

	repo := postgres.NewOrderRepo(postgres.NewTxManager(pool))
	order := &orders.Order{
		ID:            id.New(),
		OrderNumber:   "ORD-2026-1001",
		CustomerID:    "demo-customer",
		CustomerName:  "Jan de Vries",
		Email:         "jan@example.nl",
		PaymentStatus: orders.PaymentPaid,
		Items: []orders.Item{
			{
				ProductID:   productIDs[0],
				Name:        products[0].name,
				Quantity:    2,
				UnitPrice:   decimal.NewFromFloat(89.95),
				CostPrice:   decimal.NewFromFloat(34.50),
				VATCategory: types.VATStandard,
			},
			{
				ProductID:   productIDs[1],
				Name:        products[1].name,
				Quantity:    1,
				UnitPrice:   decimal.NewFromFloat(99.95),
				CostPrice:   decimal.NewFromFloat(38.00),
				VATCategory: types.VATStandard,
			},
		},
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.Upsert(ctx, order); err != nil {
		return fmt.Errorf("insert demo order: %w", err)
	}

	log.Infow("demo data seeded", "products", len(products), "order", order.OrderNumber)
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
