package payment

import (
	"context"
	"fmt"
	"time"

	"sasabot/internal/model"
	"sasabot/internal/repository"

	"github.com/rs/zerolog"
)

// InitiationData is the payload returned when a payment is initiated.
type InitiationData struct {
	PaymentID          string  `json:"payment_id"`
	OrderID            string  `json:"order_id"`
	Amount             float64 `json:"amount"`
	Phone              string  `json:"phone"`
	BusinessName       string  `json:"business_name"`
	Method             string  `json:"method"`
	ProcessingDelaySec int     `json:"processing_delay_sec"`
	RetryCount         int     `json:"retry_count,omitempty"`
}

// CompletionData is the payload returned when a payment completion is
// processed. PaymentSuccess distinguishes the M-Pesa outcome from the
// operation outcome: a declined push is still a successful operation.
type CompletionData struct {
	PaymentSuccess bool           `json:"payment_success"`
	TransactionID  string         `json:"transaction_id,omitempty"`
	FailureReason  string         `json:"failure_reason,omitempty"`
	Payment        *model.Payment `json:"payment"`
}

// Service drives the payment lifecycle for orders. Transitions are
// caller-driven: Initiate creates a pending attempt, Complete resolves
// it against the gateway outcome, and Cancel/Expire close it early.
// Terminal payments never move again.
type Service struct {
	orders     repository.OrderRepository
	payments   repository.PaymentRepository
	businesses repository.BusinessRepository
	gateway    Gateway
	logger     zerolog.Logger
}

// NewService creates a new payment service.
func NewService(
	orders repository.OrderRepository,
	payments repository.PaymentRepository,
	businesses repository.BusinessRepository,
	gateway Gateway,
	logger zerolog.Logger,
) *Service {
	return &Service{
		orders:     orders,
		payments:   payments,
		businesses: businesses,
		gateway:    gateway,
		logger:     logger.With().Str("service", "payment").Logger(),
	}
}

// Initiate starts a new M-Pesa payment attempt for an order. The phone
// number may be omitted when the order already carries one; a supplied
// number must normalize and match the order's number.
func (s *Service) Initiate(ctx context.Context, orderID, customerPhone string) *model.Result {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return model.Err(model.ErrDatabase, "Could not load the order. Please try again.")
	}
	if order == nil {
		return model.Err(model.ErrOrderNotFound, fmt.Sprintf("Order %s was not found.", orderID))
	}

	if order.PaymentStatus == model.OrderPaymentStatusCompleted {
		res := model.Err(model.ErrAlreadyPaid,
			fmt.Sprintf("Order %s has already been paid.", orderID))
		if order.PaymentID != nil {
			res.Data = map[string]string{"payment_id": *order.PaymentID}
		}
		return res
	}

	if customerPhone == "" {
		customerPhone = order.CustomerPhone
	}
	if customerPhone == "" {
		return model.Err(model.ErrMissingPhone,
			"A phone number is required to initiate M-Pesa payment.")
	}

	phone, err := NormalizePhone(customerPhone)
	if err != nil {
		return model.Err(model.ErrInvalidPhone,
			fmt.Sprintf("%q is not a valid Kenyan phone number. Use the format 07XXXXXXXX or +2547XXXXXXXX.", customerPhone))
	}

	if order.CustomerPhone != "" {
		orderPhone, err := NormalizePhone(order.CustomerPhone)
		if err == nil && orderPhone != phone {
			return model.Err(model.ErrPhoneMismatch,
				fmt.Sprintf("The phone number does not match the one on order %s.", orderID))
		}
	}

	paymentID, err := s.payments.NextID(ctx)
	if err != nil {
		return model.Err(model.ErrDatabase, "Could not allocate a payment ID. Please try again.")
	}

	payment := &model.Payment{
		PaymentID:          paymentID,
		OrderID:            orderID,
		CustomerPhone:      phone,
		Amount:             order.GrandTotal,
		Method:             model.PaymentMethodMpesa,
		Status:             model.PaymentPending,
		ProcessingDelaySec: s.gateway.ProcessingDelaySec(),
		InitiatedAt:        time.Now().UTC(),
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return model.Err(model.ErrDatabase, "Could not record the payment. Please try again.")
	}

	if err := s.orders.UpdateStatus(ctx, orderID, model.OrderPaymentPending); err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID).Msg("failed to move order to payment_pending")
	}

	businessName := "the business"
	if business, err := s.businesses.GetByID(ctx, order.BusinessID); err == nil && business != nil {
		businessName = business.Name
	}

	s.logger.Info().
		Str("payment_id", paymentID).
		Str("order_id", orderID).
		Float64("amount", payment.Amount).
		Msg("payment initiated")

	msg := fmt.Sprintf(
		"M-Pesa payment request sent to %s for KSh %.2f payable to %s. Enter your PIN on the prompt; confirmation takes about %d seconds.",
		phone, payment.Amount, businessName, payment.ProcessingDelaySec)
	return model.Ok(msg, &InitiationData{
		PaymentID:          paymentID,
		OrderID:            orderID,
		Amount:             payment.Amount,
		Phone:              phone,
		BusinessName:       businessName,
		Method:             payment.Method,
		ProcessingDelaySec: payment.ProcessingDelaySec,
	})
}

// Status reads a payment without changing it.
func (s *Service) Status(ctx context.Context, paymentID string) *model.Result {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return model.Err(model.ErrDatabase, "Could not load the payment. Please try again.")
	}
	if payment == nil {
		return model.Err(model.ErrPaymentNotFound, fmt.Sprintf("Payment %s was not found.", paymentID))
	}

	var msg string
	switch payment.Status {
	case model.PaymentPending:
		msg = fmt.Sprintf("Payment %s is waiting for the M-Pesa prompt to be confirmed.", paymentID)
	case model.PaymentProcessing:
		msg = fmt.Sprintf("Payment %s is being processed by M-Pesa.", paymentID)
	case model.PaymentCompleted:
		msg = fmt.Sprintf("Payment %s completed successfully.", paymentID)
		if payment.TransactionID != nil {
			msg = fmt.Sprintf("Payment %s completed successfully. M-Pesa receipt: %s.", paymentID, *payment.TransactionID)
		}
	case model.PaymentFailed:
		msg = fmt.Sprintf("Payment %s failed.", paymentID)
		if payment.FailureReason != nil {
			msg = fmt.Sprintf("Payment %s failed: %s", paymentID, *payment.FailureReason)
		}
	case model.PaymentCancelled:
		msg = fmt.Sprintf("Payment %s was cancelled.", paymentID)
	case model.PaymentExpired:
		msg = fmt.Sprintf("Payment %s expired before confirmation.", paymentID)
	default:
		msg = fmt.Sprintf("Payment %s is in state %s.", paymentID, payment.Status)
	}

	return model.Ok(msg, payment)
}

// Complete resolves a pending or processing payment against the gateway
// outcome. forceSuccess overrides the gateway draw when non-nil. On
// success the payment and its order are updated in one transaction; a
// declined push records the failure reason but is still a successful
// operation from the caller's point of view.
func (s *Service) Complete(ctx context.Context, paymentID string, forceSuccess *bool) *model.Result {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return model.Err(model.ErrDatabase, "Could not load the payment. Please try again.")
	}
	if payment == nil {
		return model.Err(model.ErrPaymentNotFound, fmt.Sprintf("Payment %s was not found.", paymentID))
	}
	if payment.Terminal() {
		return model.Err(model.ErrInvalidState,
			fmt.Sprintf("Payment %s is already %s and cannot be processed again.", paymentID, payment.Status))
	}

	success := s.gateway.Outcome()
	if forceSuccess != nil {
		success = *forceSuccess
	}

	if !success {
		reason := s.gateway.FailureReason()
		updated, err := s.payments.MarkFailed(ctx, paymentID, reason)
		if err != nil {
			return model.Err(model.ErrDatabase, "Could not record the payment outcome. Please try again.")
		}
		if !updated {
			return model.Err(model.ErrInvalidState,
				fmt.Sprintf("Payment %s was already finalized.", paymentID))
		}

		s.logger.Info().
			Str("payment_id", paymentID).
			Str("reason", reason).
			Msg("payment failed")

		fresh, _ := s.payments.GetByID(ctx, paymentID)
		return model.Ok(
			fmt.Sprintf("M-Pesa payment failed: %s. You can retry the payment.", reason),
			&CompletionData{PaymentSuccess: false, FailureReason: reason, Payment: fresh})
	}

	transactionID := s.gateway.TransactionID()

	tx, err := s.payments.BeginTx(ctx)
	if err != nil {
		return model.Err(model.ErrDatabase, "Could not record the payment outcome. Please try again.")
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	updated, err := s.payments.MarkCompleted(ctx, tx, paymentID, transactionID)
	if err != nil {
		return model.Err(model.ErrDatabase, "Could not record the payment outcome. Please try again.")
	}
	if !updated {
		return model.Err(model.ErrInvalidState,
			fmt.Sprintf("Payment %s was already finalized.", paymentID))
	}

	if err := s.orders.SetPaymentOutcome(ctx, tx, payment.OrderID, paymentID); err != nil {
		return model.Err(model.ErrDatabase, "Could not confirm the order. Please try again.")
	}

	if err := tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("payment_id", paymentID).Msg("failed to commit payment completion")
		return model.Err(model.ErrDatabase, "Could not record the payment outcome. Please try again.")
	}

	s.logger.Info().
		Str("payment_id", paymentID).
		Str("order_id", payment.OrderID).
		Str("transaction_id", transactionID).
		Msg("payment completed")

	fresh, _ := s.payments.GetByID(ctx, paymentID)
	return model.Ok(
		fmt.Sprintf("Payment received. M-Pesa confirmation code %s. Order %s is confirmed.", transactionID, payment.OrderID),
		&CompletionData{PaymentSuccess: true, TransactionID: transactionID, Payment: fresh})
}

// Cancel closes a pending or processing payment at the customer's
// request. Terminal payments cannot be cancelled.
func (s *Service) Cancel(ctx context.Context, paymentID string) *model.Result {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return model.Err(model.ErrDatabase, "Could not load the payment. Please try again.")
	}
	if payment == nil {
		return model.Err(model.ErrPaymentNotFound, fmt.Sprintf("Payment %s was not found.", paymentID))
	}
	if payment.Terminal() {
		return model.Err(model.ErrCannotCancel,
			fmt.Sprintf("Payment %s is already %s and cannot be cancelled.", paymentID, payment.Status))
	}

	updated, err := s.payments.MarkCancelled(ctx, paymentID)
	if err != nil {
		return model.Err(model.ErrDatabase, "Could not cancel the payment. Please try again.")
	}
	if !updated {
		return model.Err(model.ErrCannotCancel,
			fmt.Sprintf("Payment %s was already finalized.", paymentID))
	}

	s.logger.Info().Str("payment_id", paymentID).Msg("payment cancelled")

	fresh, _ := s.payments.GetByID(ctx, paymentID)
	return model.Ok(
		fmt.Sprintf("Payment %s cancelled. You can initiate a new payment when ready.", paymentID),
		fresh)
}

// Expire times out a pending or processing payment. The caller owns the
// timeout clock; this method only performs the transition.
func (s *Service) Expire(ctx context.Context, paymentID string) *model.Result {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return model.Err(model.ErrDatabase, "Could not load the payment. Please try again.")
	}
	if payment == nil {
		return model.Err(model.ErrPaymentNotFound, fmt.Sprintf("Payment %s was not found.", paymentID))
	}
	if payment.Terminal() {
		return model.Err(model.ErrInvalidState,
			fmt.Sprintf("Payment %s is already %s and cannot expire.", paymentID, payment.Status))
	}

	updated, err := s.payments.MarkExpired(ctx, paymentID)
	if err != nil {
		return model.Err(model.ErrDatabase, "Could not expire the payment. Please try again.")
	}
	if !updated {
		return model.Err(model.ErrInvalidState,
			fmt.Sprintf("Payment %s was already finalized.", paymentID))
	}

	s.logger.Info().Str("payment_id", paymentID).Msg("payment expired")

	fresh, _ := s.payments.GetByID(ctx, paymentID)
	return model.Ok(
		fmt.Sprintf("Payment %s timed out without confirmation. You can retry the payment.", paymentID),
		fresh)
}

// Retry starts a fresh payment attempt for an order. The new attempt
// reuses the most recent failed, cancelled or expired attempt's phone
// number when none is supplied, and gets a brand new payment ID: prior
// attempts are never mutated. An order with no closed attempt simply
// gets a first attempt.
func (s *Service) Retry(ctx context.Context, orderID, customerPhone string) *model.Result {
	attempts, err := s.payments.GetByOrder(ctx, orderID)
	if err != nil {
		return model.Err(model.ErrDatabase, "Could not load previous payments. Please try again.")
	}

	var closed []model.Payment
	for _, p := range attempts {
		switch p.Status {
		case model.PaymentFailed, model.PaymentCancelled, model.PaymentExpired:
			closed = append(closed, p)
		}
	}

	if customerPhone == "" && len(closed) > 0 {
		customerPhone = closed[len(closed)-1].CustomerPhone
	}

	result := s.Initiate(ctx, orderID, customerPhone)
	if result.Success {
		if data, ok := result.Data.(*InitiationData); ok {
			data.RetryCount = len(closed)
		}
		result.Message = fmt.Sprintf("Retrying payment (attempt %d). %s", len(closed)+1, result.Message)
	}
	return result
}
