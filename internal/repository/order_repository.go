package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"sasabot/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// orderRepository implements OrderRepository using PostgreSQL. Line
// items are stored as a JSONB document on the order row: the core never
// queries items independently of their order.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// GetByID retrieves an order by its ID.
func (r *orderRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	query := `
		SELECT id, business_id, customer_phone, items, total_amount, delivery_fee,
			grand_total, status, payment_status, payment_id, created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	var o model.Order
	var itemsRaw []byte
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&o.ID, &o.BusinessID, &o.CustomerPhone, &itemsRaw, &o.TotalAmount,
		&o.DeliveryFee, &o.GrandTotal, &o.Status, &o.PaymentStatus,
		&o.PaymentID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("order_id", id).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	if err := json.Unmarshal(itemsRaw, &o.Items); err != nil {
		r.logger.Error().Err(err).Str("order_id", id).Msg("failed to decode order items")
		return nil, fmt.Errorf("failed to decode order items: %w", err)
	}

	return &o, nil
}

// NextID returns the next sequential "ORD###" order ID.
func (r *orderRepository) NextID(ctx context.Context) (string, error) {
	query := `
		SELECT COALESCE(MAX(SUBSTRING(id FROM 4)::int), 0) + 1
		FROM orders
		WHERE id LIKE 'ORD%' AND SUBSTRING(id FROM 4) ~ '^[0-9]+$'
	`

	var next int
	if err := r.pool.QueryRow(ctx, query).Scan(&next); err != nil {
		r.logger.Error().Err(err).Msg("failed to compute next order ID")
		return "", fmt.Errorf("failed to compute next order ID: %w", err)
	}

	return fmt.Sprintf("ORD%03d", next), nil
}

// Create inserts a new order.
func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to encode order items: %w", err)
	}

	query := `
		INSERT INTO orders (id, business_id, customer_phone, items, total_amount,
			delivery_fee, grand_total, status, payment_status, payment_id,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = r.pool.Exec(ctx, query,
		order.ID, order.BusinessID, order.CustomerPhone, items, order.TotalAmount,
		order.DeliveryFee, order.GrandTotal, order.Status, order.PaymentStatus,
		order.PaymentID, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", order.ID).Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().Str("order_id", order.ID).Msg("order created")
	return nil
}

// UpdateStatus sets the order status.
func (r *orderRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `
		UPDATE orders
		SET status = $2, updated_at = now()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id, status)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id).Msg("failed to update order status")
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order %s not found", id)
	}

	r.logger.Debug().Str("order_id", id).Str("status", status).Msg("order status updated")
	return nil
}

// SetPaymentOutcome marks the order paid within the provided transaction.
func (r *orderRepository) SetPaymentOutcome(ctx context.Context, tx pgx.Tx, orderID, paymentID string) error {
	query := `
		UPDATE orders
		SET status = $2, payment_status = $3, payment_id = $4, updated_at = now()
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query, orderID, model.OrderConfirmed, model.OrderPaymentStatusCompleted, paymentID)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID).Msg("failed to set order payment outcome")
		return fmt.Errorf("failed to set order payment outcome: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order %s not found", orderID)
	}

	return nil
}
