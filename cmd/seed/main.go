package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"sasabot/internal/config"
	"sasabot/internal/database"
	"sasabot/internal/model"
	"sasabot/internal/repository"
)

// Seeds the database with the demo business, its starter catalog and a
// sample order so the payment flow can be exercised end to end.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("seeding demo data")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	businessRepo := repository.NewBusinessRepository(pool, logger)
	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)

	now := time.Now().UTC()

	business := &model.Business{
		ID:          "mama_jane_electronics",
		Name:        "Mama Jane's Electronics",
		OwnerPhone:  "+254712345678",
		Description: "Electronics and accessories shop in Nairobi CBD",
		Location:    "Nairobi CBD, Moi Avenue",
		CreatedAt:   now,
	}

	existing, err := businessRepo.GetByID(ctx, business.ID)
	if err != nil {
		return fmt.Errorf("failed to check for existing demo business: %w", err)
	}
	if existing != nil {
		logger.Info().Str("business_id", business.ID).Msg("demo data already seeded, nothing to do")
		return nil
	}

	if err := businessRepo.Create(ctx, business); err != nil {
		return fmt.Errorf("failed to seed business: %w", err)
	}

	type seedProduct struct {
		name        string
		price       float64
		stock       int
		category    string
		description string
		brand       string
		warranty    string
	}

	products := []seedProduct{
		{"iPhone 13 Pro 256GB", 95000, 5, "Mobile", "Apple flagship with triple camera, 256GB storage and ProMotion display", "Apple", "12 months"},
		{"Samsung Galaxy A54", 35000, 12, "Mobile", "Mid-range smartphone with 50MP camera, 128GB storage and 5000mAh battery", "Samsung", "24 months"},
		{"Dell Inspiron 15 Laptop", 65000, 3, "Computing", "15.6 inch laptop with Intel i5, 8GB RAM and 512GB SSD for work and study", "Dell", "12 months"},
		{"JBL Flip 6 Speaker", 12000, 8, "Audio", "Portable Bluetooth speaker with deep bass and 12 hour battery life", "JBL", "12 months"},
		{"Sony WH-1000XM4 Headphones", 28000, 4, "Audio", "Wireless noise cancelling headphones with 30 hour battery life", "Sony", "12 months"},
		{"Sandisk 128GB Flash Drive", 1500, 25, "Storage", "USB 3.0 flash drive with 128GB capacity and metal casing", "Generic", "6 months"},
		{"Logitech MX Master 3 Mouse", 9500, 6, "Accessories", "Ergonomic wireless mouse with precision scroll wheel and USB-C charging", "Logitech", "12 months"},
		{"Canon EOS 1500D Camera", 48000, 2, "Cameras", "24MP DSLR camera with 18-55mm lens kit, ideal for beginners", "Canon", "24 months"},
	}

	for i, sp := range products {
		createdAt := now.Add(time.Duration(i) * time.Second)
		p := &model.Product{
			ID:          fmt.Sprintf("%d", i+1),
			BusinessID:  business.ID,
			Name:        sp.name,
			Price:       sp.price,
			Stock:       sp.stock,
			Category:    sp.category,
			Description: sp.description,
			Brand:       sp.brand,
			Warranty:    sp.warranty,
			SKU:         fmt.Sprintf("SEED-%03d-%s", i+1, createdAt.Format("20060102")),
			Status:      model.ProductActive,
			CreatedAt:   createdAt,
			UpdatedAt:   createdAt,
		}
		if err := productRepo.Create(ctx, p); err != nil {
			return fmt.Errorf("failed to seed product %q: %w", sp.name, err)
		}
	}

	order := &model.Order{
		ID:            "ORD001",
		BusinessID:    business.ID,
		CustomerPhone: "+254712345678",
		Items: []model.OrderItem{
			{ProductID: "2", ProductName: "Samsung Galaxy A54", Quantity: 1, UnitPrice: 35000, TotalPrice: 35000},
		},
		TotalAmount:   35000,
		DeliveryFee:   0,
		GrandTotal:    35000,
		Status:        model.OrderPending,
		PaymentStatus: model.OrderPaymentStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := orderRepo.Create(ctx, order); err != nil {
		return fmt.Errorf("failed to seed order: %w", err)
	}

	logger.Info().
		Str("business_id", business.ID).
		Int("products", len(products)).
		Str("order_id", order.ID).
		Msg("demo data seeded")

	return nil
}
