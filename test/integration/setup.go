package integration

import (
	"context"
	"testing"
	"time"

	"sasabot/internal/database"
	"sasabot/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container, connects a pool and
// applies the schema.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		t.Fatalf("failed to parse connection string: %v", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	if err := database.Migrate(ctx, pool, zerolog.Nop()); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// CleanupDB removes all rows between test cases, children first.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()
	for _, table := range []string{"payments", "orders", "products", "businesses"} {
		if _, err := pool.Exec(ctx, "DELETE FROM "+table); err != nil {
			t.Fatalf("failed to clean up %s: %v", table, err)
		}
	}
}

// SeedBusiness inserts the test business every scenario runs against.
func SeedBusiness(t *testing.T, pool *pgxpool.Pool) *model.Business {
	t.Helper()

	ctx := context.Background()
	business := &model.Business{
		ID:         "mama_jane_electronics",
		Name:       "Mama Jane's Electronics",
		OwnerPhone: "+254712345678",
		Location:   "Nairobi CBD",
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO businesses (id, name, owner_phone, location) VALUES ($1, $2, $3, $4)`,
		business.ID, business.Name, business.OwnerPhone, business.Location)
	if err != nil {
		t.Fatalf("failed to seed business: %v", err)
	}
	return business
}

// SeedProducts inserts a small catalogue for the test business.
func SeedProducts(t *testing.T, pool *pgxpool.Pool, businessID string) []model.Product {
	t.Helper()

	ctx := context.Background()
	products := []model.Product{
		{ID: "1", BusinessID: businessID, Name: "iPhone 13 Pro 256GB", Price: 95000, Stock: 5, Category: "Mobile", Description: "Apple flagship with triple camera system", Brand: "Apple", Status: model.ProductActive},
		{ID: "2", BusinessID: businessID, Name: "Samsung Galaxy A54", Price: 35000, Stock: 12, Category: "Mobile", Description: "Mid-range phone with great battery life", Brand: "Samsung", Status: model.ProductActive},
		{ID: "3", BusinessID: businessID, Name: "JBL Flip 6 Speaker", Price: 12000, Stock: 8, Category: "Audio", Description: "Portable waterproof bluetooth speaker", Brand: "JBL", Status: model.ProductActive},
		{ID: "4", BusinessID: businessID, Name: "Sony WH-1000XM4", Price: 28000, Stock: 2, Category: "Audio", Description: "Noise cancelling over-ear headphones", Brand: "Sony", Status: model.ProductActive},
	}

	for i, p := range products {
		_, err := pool.Exec(ctx,
			`INSERT INTO products (id, business_id, name, price, stock, category, description, brand, status, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			p.ID, p.BusinessID, p.Name, p.Price, p.Stock, p.Category, p.Description, p.Brand, p.Status,
			time.Now().UTC().Add(time.Duration(i)*time.Second))
		if err != nil {
			t.Fatalf("failed to seed product %s: %v", p.ID, err)
		}
	}
	return products
}

// SeedOrder inserts a pending order referencing the seeded catalogue.
func SeedOrder(t *testing.T, pool *pgxpool.Pool, businessID string) *model.Order {
	t.Helper()

	ctx := context.Background()
	order := &model.Order{
		ID:            "ORD001",
		BusinessID:    businessID,
		CustomerPhone: "+254712345678",
		TotalAmount:   35000,
		GrandTotal:    35000,
		Status:        model.OrderPending,
		PaymentStatus: model.OrderPaymentStatusPending,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO orders (id, business_id, customer_phone, items, total_amount, grand_total, status, payment_status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		order.ID, order.BusinessID, order.CustomerPhone,
		`[{"product_id":"2","product_name":"Samsung Galaxy A54","quantity":1,"unit_price":35000,"total_price":35000}]`,
		order.TotalAmount, order.GrandTotal, order.Status, order.PaymentStatus)
	if err != nil {
		t.Fatalf("failed to seed order: %v", err)
	}
	return order
}
