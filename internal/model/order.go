package model

import "time"

// Order status values. Payment transitions drive pending ->
// payment_pending -> confirmed; fulfilment drives the rest.
const (
	OrderPending        = "pending"
	OrderPaymentPending = "payment_pending"
	OrderConfirmed      = "confirmed"
	OrderShipped        = "shipped"
	OrderDelivered      = "delivered"
)

// Order payment_status values.
const (
	OrderPaymentStatusPending   = "pending"
	OrderPaymentStatusCompleted = "completed"
)

// Order represents a customer order against a single business.
type Order struct {
	ID            string      `json:"id" db:"id"`
	BusinessID    string      `json:"business_id" db:"business_id"`
	CustomerPhone string      `json:"customer_phone" db:"customer_phone"`
	Items         []OrderItem `json:"items" db:"items"`
	TotalAmount   float64     `json:"total_amount" db:"total_amount"`
	DeliveryFee   float64     `json:"delivery_fee" db:"delivery_fee"`
	GrandTotal    float64     `json:"grand_total" db:"grand_total"`
	Status        string      `json:"status" db:"status"`
	PaymentStatus string      `json:"payment_status" db:"payment_status"`
	PaymentID     *string     `json:"payment_id,omitempty" db:"payment_id"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}

// OrderItem is a line item in an order. All items in one order belong to
// the same business as the order itself.
type OrderItem struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	TotalPrice  float64 `json:"total_price"`
}
