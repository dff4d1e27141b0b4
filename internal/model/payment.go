package model

import "time"

// Payment status values. Completed, failed, cancelled and expired are
// terminal: no further transition is permitted from any of them.
const (
	PaymentPending    = "pending"
	PaymentProcessing = "processing"
	PaymentCompleted  = "completed"
	PaymentFailed     = "failed"
	PaymentCancelled  = "cancelled"
	PaymentExpired    = "expired"
)

// PaymentMethodMpesa is the only supported payment method.
const PaymentMethodMpesa = "mpesa"

// Payment models a single payment attempt for an order. Retries create
// new payment records rather than mutating old ones.
type Payment struct {
	PaymentID     string     `json:"payment_id" db:"payment_id"`
	OrderID       string     `json:"order_id" db:"order_id"`
	CustomerPhone string     `json:"customer_phone" db:"customer_phone"`
	Amount        float64    `json:"amount" db:"amount"`
	Method        string     `json:"method" db:"method"`
	Status        string     `json:"status" db:"status"`
	TransactionID *string    `json:"transaction_id,omitempty" db:"transaction_id"`
	FailureReason *string    `json:"failure_reason,omitempty" db:"failure_reason"`
	// ProcessingDelaySec is informational only: the simulated STK-push
	// window reported to the caller at initiation.
	ProcessingDelaySec int        `json:"processing_delay_sec" db:"processing_delay_sec"`
	InitiatedAt        time.Time  `json:"initiated_at" db:"initiated_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// Terminal reports whether the payment is in a state that forbids
// further transitions.
func (p *Payment) Terminal() bool {
	switch p.Status {
	case PaymentCompleted, PaymentFailed, PaymentCancelled, PaymentExpired:
		return true
	}
	return false
}
