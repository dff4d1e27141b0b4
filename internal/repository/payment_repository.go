package repository

import (
	"context"
	"fmt"

	"sasabot/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const paymentColumns = `payment_id, order_id, customer_phone, amount, method, status,
	transaction_id, failure_reason, processing_delay_sec, initiated_at, completed_at`

// paymentRepository implements PaymentRepository using PostgreSQL.
// Terminal transitions are guarded at the SQL level so a payment in a
// terminal state can never be moved again, even by a racing writer.
type paymentRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPaymentRepository creates a new PostgreSQL-backed payment repository.
func NewPaymentRepository(pool *pgxpool.Pool, logger zerolog.Logger) PaymentRepository {
	return &paymentRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "payment").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *paymentRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

func scanPayment(row pgx.Row) (*model.Payment, error) {
	var p model.Payment
	err := row.Scan(
		&p.PaymentID, &p.OrderID, &p.CustomerPhone, &p.Amount, &p.Method,
		&p.Status, &p.TransactionID, &p.FailureReason, &p.ProcessingDelaySec,
		&p.InitiatedAt, &p.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByID retrieves a payment by its ID.
func (r *paymentRepository) GetByID(ctx context.Context, paymentID string) (*model.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE payment_id = $1`, paymentColumns)

	p, err := scanPayment(r.pool.QueryRow(ctx, query, paymentID))
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("payment_id", paymentID).Msg("payment not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("payment_id", paymentID).Msg("failed to query payment")
		return nil, fmt.Errorf("failed to query payment: %w", err)
	}

	return p, nil
}

// GetByOrder retrieves all payments for an order, oldest first.
func (r *paymentRepository) GetByOrder(ctx context.Context, orderID string) ([]model.Payment, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM payments
		WHERE order_id = $1
		ORDER BY initiated_at, payment_id
	`, paymentColumns)

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID).Msg("failed to query payments")
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var payments []model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan payment row")
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, *p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating payment rows")
		return nil, fmt.Errorf("error iterating payments: %w", err)
	}

	return payments, nil
}

// NextID returns the next sequential "PAY###" payment ID.
func (r *paymentRepository) NextID(ctx context.Context) (string, error) {
	query := `
		SELECT COALESCE(MAX(SUBSTRING(payment_id FROM 4)::int), 0) + 1
		FROM payments
		WHERE payment_id LIKE 'PAY%' AND SUBSTRING(payment_id FROM 4) ~ '^[0-9]+$'
	`

	var next int
	if err := r.pool.QueryRow(ctx, query).Scan(&next); err != nil {
		r.logger.Error().Err(err).Msg("failed to compute next payment ID")
		return "", fmt.Errorf("failed to compute next payment ID: %w", err)
	}

	return fmt.Sprintf("PAY%03d", next), nil
}

// Create inserts a new payment record.
func (r *paymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	query := `
		INSERT INTO payments (payment_id, order_id, customer_phone, amount, method,
			status, transaction_id, failure_reason, processing_delay_sec,
			initiated_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.pool.Exec(ctx, query,
		payment.PaymentID, payment.OrderID, payment.CustomerPhone, payment.Amount,
		payment.Method, payment.Status, payment.TransactionID, payment.FailureReason,
		payment.ProcessingDelaySec, payment.InitiatedAt, payment.CompletedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("payment_id", payment.PaymentID).Msg("failed to create payment")
		return fmt.Errorf("failed to create payment: %w", err)
	}

	r.logger.Debug().
		Str("payment_id", payment.PaymentID).
		Str("order_id", payment.OrderID).
		Msg("payment created")

	return nil
}

// MarkCompleted transitions the payment to completed within the provided
// transaction. Guarded so only pending/processing payments move.
func (r *paymentRepository) MarkCompleted(ctx context.Context, tx pgx.Tx, paymentID, transactionID string) (bool, error) {
	query := `
		UPDATE payments
		SET status = $2, transaction_id = $3, completed_at = now()
		WHERE payment_id = $1 AND status IN ('pending', 'processing')
	`

	tag, err := tx.Exec(ctx, query, paymentID, model.PaymentCompleted, transactionID)
	if err != nil {
		r.logger.Error().Err(err).Str("payment_id", paymentID).Msg("failed to mark payment completed")
		return false, fmt.Errorf("failed to mark payment completed: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// markTerminal moves a pending/processing payment into the given
// terminal state, recording an optional failure reason.
func (r *paymentRepository) markTerminal(ctx context.Context, paymentID, status string, reason *string) (bool, error) {
	query := `
		UPDATE payments
		SET status = $2, failure_reason = $3, completed_at = now()
		WHERE payment_id = $1 AND status IN ('pending', 'processing')
	`

	tag, err := r.pool.Exec(ctx, query, paymentID, status, reason)
	if err != nil {
		r.logger.Error().Err(err).
			Str("payment_id", paymentID).
			Str("status", status).
			Msg("failed to mark payment terminal")
		return false, fmt.Errorf("failed to mark payment %s: %w", status, err)
	}

	return tag.RowsAffected() > 0, nil
}

// MarkFailed transitions a pending/processing payment to failed.
func (r *paymentRepository) MarkFailed(ctx context.Context, paymentID, reason string) (bool, error) {
	return r.markTerminal(ctx, paymentID, model.PaymentFailed, &reason)
}

// MarkCancelled transitions a pending/processing payment to cancelled.
func (r *paymentRepository) MarkCancelled(ctx context.Context, paymentID string) (bool, error) {
	reason := "Cancelled by user"
	return r.markTerminal(ctx, paymentID, model.PaymentCancelled, &reason)
}

// MarkExpired transitions a pending/processing payment to expired.
func (r *paymentRepository) MarkExpired(ctx context.Context, paymentID string) (bool, error) {
	reason := "Payment timed out"
	return r.markTerminal(ctx, paymentID, model.PaymentExpired, &reason)
}
