package repository

import (
	"context"

	"sasabot/internal/model"

	"github.com/jackc/pgx/v5"
)

// BusinessRepository defines the interface for business data access.
type BusinessRepository interface {
	// GetByID retrieves a business by its ID. Returns nil when absent.
	GetByID(ctx context.Context, id string) (*model.Business, error)

	// GetAll retrieves all businesses.
	GetAll(ctx context.Context) ([]model.Business, error)

	// Create inserts a new business.
	Create(ctx context.Context, business *model.Business) error
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	// GetByBusiness retrieves all products for a business in creation
	// order. When activeOnly is set, inactive products are excluded.
	GetByBusiness(ctx context.Context, businessID string, activeOnly bool) ([]model.Product, error)

	// GetByID retrieves a single product by its ID. Returns nil when absent.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// FindByName returns the first active product of the business whose
	// name contains the term, ignoring case, in creation order.
	// Returns nil when nothing matches.
	FindByName(ctx context.Context, businessID, term string) (*model.Product, error)

	// FindByExactName returns the business's product whose name equals
	// the given name ignoring case, or nil.
	FindByExactName(ctx context.Context, businessID, name string) (*model.Product, error)

	// NextID returns the next sequential numeric product ID.
	NextID(ctx context.Context) (string, error)

	// Create inserts a new product.
	Create(ctx context.Context, product *model.Product) error

	// UpdateFields applies a partial update. Keys are column names.
	// Returns false when the product does not exist.
	UpdateFields(ctx context.Context, id string, fields map[string]any) (bool, error)

	// Delete removes a product. Returns false when it does not exist.
	Delete(ctx context.Context, id string) (bool, error)

	// SetStock sets the stock level and returns the new value.
	SetStock(ctx context.Context, id string, stock int) (int, error)

	// AdjustStock adds delta to the stock level, flooring at zero, and
	// returns the new value.
	AdjustStock(ctx context.Context, id string, delta int) (int, error)
}

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	// GetByID retrieves an order by its ID. Returns nil when absent.
	GetByID(ctx context.Context, id string) (*model.Order, error)

	// NextID returns the next sequential "ORD###" order ID.
	NextID(ctx context.Context) (string, error)

	// Create inserts a new order.
	Create(ctx context.Context, order *model.Order) error

	// UpdateStatus sets the order status.
	UpdateStatus(ctx context.Context, id, status string) error

	// SetPaymentOutcome marks the order paid within the provided
	// transaction: status confirmed, payment_status completed and
	// payment_id set.
	SetPaymentOutcome(ctx context.Context, tx pgx.Tx, orderID, paymentID string) error
}

// PaymentRepository defines the interface for payment data access.
type PaymentRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// GetByID retrieves a payment by its ID. Returns nil when absent.
	GetByID(ctx context.Context, paymentID string) (*model.Payment, error)

	// GetByOrder retrieves all payments for an order, oldest first.
	GetByOrder(ctx context.Context, orderID string) ([]model.Payment, error)

	// NextID returns the next sequential "PAY###" payment ID.
	NextID(ctx context.Context) (string, error)

	// Create inserts a new payment record.
	Create(ctx context.Context, payment *model.Payment) error

	// MarkCompleted transitions the payment to completed within the
	// provided transaction, assigning the transaction ID. The update is
	// guarded: it only applies while the payment is pending or
	// processing, and returns false otherwise.
	MarkCompleted(ctx context.Context, tx pgx.Tx, paymentID, transactionID string) (bool, error)

	// MarkFailed transitions a pending/processing payment to failed with
	// the given reason. Returns false if the payment was already terminal.
	MarkFailed(ctx context.Context, paymentID, reason string) (bool, error)

	// MarkCancelled transitions a pending/processing payment to
	// cancelled. Returns false if the payment was already terminal.
	MarkCancelled(ctx context.Context, paymentID string) (bool, error)

	// MarkExpired transitions a pending/processing payment to expired.
	// Returns false if the payment was already terminal.
	MarkExpired(ctx context.Context, paymentID string) (bool, error)
}
