package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"sasabot/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestPaymentService(gateway Gateway) (*Service, *MockOrderRepository, *MockPaymentRepository, *MockBusinessRepository) {
	mockOrders := new(MockOrderRepository)
	mockPayments := new(MockPaymentRepository)
	mockBusinesses := new(MockBusinessRepository)
	svc := NewService(mockOrders, mockPayments, mockBusinesses, gateway, zerolog.Nop())
	return svc, mockOrders, mockPayments, mockBusinesses
}

func pendingOrder() *model.Order {
	return &model.Order{
		ID:            "ORD001",
		BusinessID:    "biz1",
		CustomerPhone: "+254712345678",
		GrandTotal:    35000,
		Status:        model.OrderPending,
		PaymentStatus: model.OrderPaymentStatusPending,
	}
}

func pendingPayment() *model.Payment {
	return &model.Payment{
		PaymentID:     "PAY001",
		OrderID:       "ORD001",
		CustomerPhone: "+254712345678",
		Amount:        35000,
		Method:        model.PaymentMethodMpesa,
		Status:        model.PaymentPending,
		InitiatedAt:   time.Now().UTC(),
	}
}

func terminalPayment(status string) *model.Payment {
	p := pendingPayment()
	p.Status = status
	now := time.Now().UTC()
	p.CompletedAt = &now
	return p
}

func TestPaymentService_Initiate_Success(t *testing.T) {
	ctx := context.Background()
	gw := &stubGateway{delaySec: 20}
	svc, mockOrders, mockPayments, mockBusinesses := newTestPaymentService(gw)

	mockOrders.On("GetByID", ctx, "ORD001").Return(pendingOrder(), nil)
	mockPayments.On("NextID", ctx).Return("PAY001", nil)
	mockPayments.On("Create", ctx, mock.AnythingOfType("*model.Payment")).Return(nil)
	mockOrders.On("UpdateStatus", ctx, "ORD001", model.OrderPaymentPending).Return(nil)
	mockBusinesses.On("GetByID", ctx, "biz1").Return(&model.Business{ID: "biz1", Name: "Mama Jane's Electronics"}, nil)

	res := svc.Initiate(ctx, "ORD001", "0712345678")

	require.True(t, res.Success)
	data, ok := res.Data.(*InitiationData)
	require.True(t, ok)
	assert.Equal(t, "PAY001", data.PaymentID)
	assert.Equal(t, "+254712345678", data.Phone)
	assert.Equal(t, 35000.0, data.Amount)
	assert.Equal(t, 20, data.ProcessingDelaySec)
	assert.Equal(t, "Mama Jane's Electronics", data.BusinessName)

	created := mockPayments.Calls[1].Arguments.Get(1).(*model.Payment)
	assert.Equal(t, model.PaymentPending, created.Status)
	assert.Nil(t, created.TransactionID)

	mockOrders.AssertExpectations(t)
	mockPayments.AssertExpectations(t)
}

func TestPaymentService_Initiate_UsesOrderPhoneWhenOmitted(t *testing.T) {
	ctx := context.Background()
	svc, mockOrders, mockPayments, mockBusinesses := newTestPaymentService(&stubGateway{delaySec: 15})

	mockOrders.On("GetByID", ctx, "ORD001").Return(pendingOrder(), nil)
	mockPayments.On("NextID", ctx).Return("PAY001", nil)
	mockPayments.On("Create", ctx, mock.AnythingOfType("*model.Payment")).Return(nil)
	mockOrders.On("UpdateStatus", ctx, "ORD001", model.OrderPaymentPending).Return(nil)
	mockBusinesses.On("GetByID", ctx, "biz1").Return(nil, nil)

	res := svc.Initiate(ctx, "ORD001", "")

	require.True(t, res.Success)
	assert.Equal(t, "+254712345678", res.Data.(*InitiationData).Phone)
}

func TestPaymentService_Initiate_Failures(t *testing.T) {
	ctx := context.Background()

	paidOrder := pendingOrder()
	paidOrder.PaymentStatus = model.OrderPaymentStatusCompleted
	existingID := "PAY009"
	paidOrder.PaymentID = &existingID

	noPhoneOrder := pendingOrder()
	noPhoneOrder.CustomerPhone = ""

	tests := []struct {
		name          string
		order         *model.Order
		orderErr      error
		phone         string
		wantErrorType string
	}{
		{"Order not found", nil, nil, "0712345678", model.ErrOrderNotFound},
		{"Repository error", nil, errors.New("boom"), "0712345678", model.ErrDatabase},
		{"Already paid", paidOrder, nil, "0712345678", model.ErrAlreadyPaid},
		{"Missing phone", noPhoneOrder, nil, "", model.ErrMissingPhone},
		{"Invalid phone", pendingOrder(), nil, "12345", model.ErrInvalidPhone},
		{"Phone mismatch", pendingOrder(), nil, "0798765432", model.ErrPhoneMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mockOrders, mockPayments, _ := newTestPaymentService(&stubGateway{})
			if tt.order == nil && tt.orderErr == nil {
				mockOrders.On("GetByID", ctx, "ORD001").Return(nil, nil)
			} else {
				mockOrders.On("GetByID", ctx, "ORD001").Return(tt.order, tt.orderErr)
			}

			res := svc.Initiate(ctx, "ORD001", tt.phone)

			require.False(t, res.Success)
			assert.Equal(t, tt.wantErrorType, res.ErrorType)
			mockPayments.AssertNotCalled(t, "Create")
		})
	}
}

func TestPaymentService_Initiate_AlreadyPaidReturnsExistingPayment(t *testing.T) {
	ctx := context.Background()
	svc, mockOrders, _, _ := newTestPaymentService(&stubGateway{})

	order := pendingOrder()
	order.PaymentStatus = model.OrderPaymentStatusCompleted
	existingID := "PAY009"
	order.PaymentID = &existingID

	mockOrders.On("GetByID", ctx, "ORD001").Return(order, nil)

	res := svc.Initiate(ctx, "ORD001", "0712345678")

	require.False(t, res.Success)
	assert.Equal(t, model.ErrAlreadyPaid, res.ErrorType)
	assert.Equal(t, map[string]string{"payment_id": "PAY009"}, res.Data)
}

func TestPaymentService_Status(t *testing.T) {
	ctx := context.Background()

	txn := "A1B2C3D4E5"
	completed := terminalPayment(model.PaymentCompleted)
	completed.TransactionID = &txn

	reason := "Insufficient funds in M-Pesa account"
	failed := terminalPayment(model.PaymentFailed)
	failed.FailureReason = &reason

	tests := []struct {
		name        string
		payment     *model.Payment
		wantSuccess bool
		wantInMsg   string
	}{
		{"Pending", pendingPayment(), true, "waiting"},
		{"Completed with receipt", completed, true, "A1B2C3D4E5"},
		{"Failed with reason", failed, true, "Insufficient funds"},
		{"Cancelled", terminalPayment(model.PaymentCancelled), true, "cancelled"},
		{"Expired", terminalPayment(model.PaymentExpired), true, "expired"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, mockPayments, _ := newTestPaymentService(&stubGateway{})
			mockPayments.On("GetByID", ctx, "PAY001").Return(tt.payment, nil)

			res := svc.Status(ctx, "PAY001")

			require.Equal(t, tt.wantSuccess, res.Success)
			assert.Contains(t, res.Message, tt.wantInMsg)
			assert.Equal(t, tt.payment, res.Data)
		})
	}

	t.Run("Not found", func(t *testing.T) {
		svc, _, mockPayments, _ := newTestPaymentService(&stubGateway{})
		mockPayments.On("GetByID", ctx, "PAY404").Return(nil, nil)

		res := svc.Status(ctx, "PAY404")

		require.False(t, res.Success)
		assert.Equal(t, model.ErrPaymentNotFound, res.ErrorType)
	})
}

func TestPaymentService_Complete_Success(t *testing.T) {
	ctx := context.Background()
	gw := &stubGateway{outcome: true, transactionID: "A1B2C3D4E5"}
	svc, mockOrders, mockPayments, _ := newTestPaymentService(gw)
	mockTx := new(MockTx)

	txn := "A1B2C3D4E5"
	completed := terminalPayment(model.PaymentCompleted)
	completed.TransactionID = &txn

	mockPayments.On("GetByID", ctx, "PAY001").Return(pendingPayment(), nil).Once()
	mockPayments.On("BeginTx", ctx).Return(mockTx, nil)
	mockPayments.On("MarkCompleted", ctx, mockTx, "PAY001", "A1B2C3D4E5").Return(true, nil)
	mockOrders.On("SetPaymentOutcome", ctx, mockTx, "ORD001", "PAY001").Return(nil)
	mockTx.On("Commit", ctx).Return(nil)
	mockTx.On("Rollback", ctx).Return(errors.New("tx is closed"))
	mockPayments.On("GetByID", ctx, "PAY001").Return(completed, nil)

	res := svc.Complete(ctx, "PAY001", nil)

	require.True(t, res.Success)
	data, ok := res.Data.(*CompletionData)
	require.True(t, ok)
	assert.True(t, data.PaymentSuccess)
	assert.Equal(t, "A1B2C3D4E5", data.TransactionID)
	assert.Equal(t, model.PaymentCompleted, data.Payment.Status)

	mockOrders.AssertExpectations(t)
	mockPayments.AssertExpectations(t)
	mockTx.AssertExpectations(t)
}

func TestPaymentService_Complete_GatewayFailure(t *testing.T) {
	ctx := context.Background()
	gw := &stubGateway{outcome: false, failureReason: "Insufficient funds in M-Pesa account"}
	svc, mockOrders, mockPayments, _ := newTestPaymentService(gw)

	reason := gw.failureReason
	failed := terminalPayment(model.PaymentFailed)
	failed.FailureReason = &reason

	mockPayments.On("GetByID", ctx, "PAY001").Return(pendingPayment(), nil).Once()
	mockPayments.On("MarkFailed", ctx, "PAY001", reason).Return(true, nil)
	mockPayments.On("GetByID", ctx, "PAY001").Return(failed, nil)

	res := svc.Complete(ctx, "PAY001", nil)

	// A declined push is still a successful operation
	require.True(t, res.Success)
	data := res.Data.(*CompletionData)
	assert.False(t, data.PaymentSuccess)
	assert.Equal(t, reason, data.FailureReason)

	mockOrders.AssertNotCalled(t, "SetPaymentOutcome")
	mockPayments.AssertNotCalled(t, "BeginTx")
}

func TestPaymentService_Complete_ForceOverridesGateway(t *testing.T) {
	ctx := context.Background()
	// Gateway would fail, but the override forces success
	gw := &stubGateway{outcome: false, transactionID: "FORCED00XY"}
	svc, mockOrders, mockPayments, _ := newTestPaymentService(gw)
	mockTx := new(MockTx)

	mockPayments.On("GetByID", ctx, "PAY001").Return(pendingPayment(), nil).Once()
	mockPayments.On("BeginTx", ctx).Return(mockTx, nil)
	mockPayments.On("MarkCompleted", ctx, mockTx, "PAY001", "FORCED00XY").Return(true, nil)
	mockOrders.On("SetPaymentOutcome", ctx, mockTx, "ORD001", "PAY001").Return(nil)
	mockTx.On("Commit", ctx).Return(nil)
	mockTx.On("Rollback", ctx).Return(errors.New("tx is closed"))
	mockPayments.On("GetByID", ctx, "PAY001").Return(terminalPayment(model.PaymentCompleted), nil)

	force := true
	res := svc.Complete(ctx, "PAY001", &force)

	require.True(t, res.Success)
	assert.True(t, res.Data.(*CompletionData).PaymentSuccess)
}

func TestPaymentService_Complete_TerminalStates(t *testing.T) {
	ctx := context.Background()

	for _, status := range []string{
		model.PaymentCompleted, model.PaymentFailed,
		model.PaymentCancelled, model.PaymentExpired,
	} {
		t.Run(status, func(t *testing.T) {
			svc, _, mockPayments, _ := newTestPaymentService(&stubGateway{outcome: true})
			mockPayments.On("GetByID", ctx, "PAY001").Return(terminalPayment(status), nil)

			res := svc.Complete(ctx, "PAY001", nil)

			require.False(t, res.Success)
			assert.Equal(t, model.ErrInvalidState, res.ErrorType)
			assert.Contains(t, res.Message, status)
			mockPayments.AssertNotCalled(t, "BeginTx")
			mockPayments.AssertNotCalled(t, "MarkFailed")
		})
	}
}

func TestPaymentService_Complete_RacedFinalization(t *testing.T) {
	ctx := context.Background()
	svc, _, mockPayments, _ := newTestPaymentService(&stubGateway{outcome: true, transactionID: "A1B2C3D4E5"})
	mockTx := new(MockTx)

	// Read sees pending, but a concurrent writer finalizes first: the
	// guarded UPDATE touches zero rows.
	mockPayments.On("GetByID", ctx, "PAY001").Return(pendingPayment(), nil)
	mockPayments.On("BeginTx", ctx).Return(mockTx, nil)
	mockPayments.On("MarkCompleted", ctx, mockTx, "PAY001", "A1B2C3D4E5").Return(false, nil)
	mockTx.On("Rollback", ctx).Return(nil)

	res := svc.Complete(ctx, "PAY001", nil)

	require.False(t, res.Success)
	assert.Equal(t, model.ErrInvalidState, res.ErrorType)
	mockTx.AssertCalled(t, "Rollback", ctx)
}

func TestPaymentService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("Pending payment cancels", func(t *testing.T) {
		svc, _, mockPayments, _ := newTestPaymentService(&stubGateway{})
		mockPayments.On("GetByID", ctx, "PAY001").Return(pendingPayment(), nil).Once()
		mockPayments.On("MarkCancelled", ctx, "PAY001").Return(true, nil)
		mockPayments.On("GetByID", ctx, "PAY001").Return(terminalPayment(model.PaymentCancelled), nil)

		res := svc.Cancel(ctx, "PAY001")

		require.True(t, res.Success)
		assert.Equal(t, model.PaymentCancelled, res.Data.(*model.Payment).Status)
	})

	t.Run("Terminal payment cannot cancel", func(t *testing.T) {
		svc, _, mockPayments, _ := newTestPaymentService(&stubGateway{})
		mockPayments.On("GetByID", ctx, "PAY001").Return(terminalPayment(model.PaymentCompleted), nil)

		res := svc.Cancel(ctx, "PAY001")

		require.False(t, res.Success)
		assert.Equal(t, model.ErrCannotCancel, res.ErrorType)
		mockPayments.AssertNotCalled(t, "MarkCancelled")
	})

	t.Run("Not found", func(t *testing.T) {
		svc, _, mockPayments, _ := newTestPaymentService(&stubGateway{})
		mockPayments.On("GetByID", ctx, "PAY404").Return(nil, nil)

		res := svc.Cancel(ctx, "PAY404")

		require.False(t, res.Success)
		assert.Equal(t, model.ErrPaymentNotFound, res.ErrorType)
	})
}

func TestPaymentService_Expire(t *testing.T) {
	ctx := context.Background()

	t.Run("Pending payment expires", func(t *testing.T) {
		svc, _, mockPayments, _ := newTestPaymentService(&stubGateway{})
		mockPayments.On("GetByID", ctx, "PAY001").Return(pendingPayment(), nil).Once()
		mockPayments.On("MarkExpired", ctx, "PAY001").Return(true, nil)
		mockPayments.On("GetByID", ctx, "PAY001").Return(terminalPayment(model.PaymentExpired), nil)

		res := svc.Expire(ctx, "PAY001")

		require.True(t, res.Success)
		assert.Contains(t, res.Message, "timed out")
	})

	t.Run("Terminal payment cannot expire", func(t *testing.T) {
		svc, _, mockPayments, _ := newTestPaymentService(&stubGateway{})
		mockPayments.On("GetByID", ctx, "PAY001").Return(terminalPayment(model.PaymentCompleted), nil)

		res := svc.Expire(ctx, "PAY001")

		require.False(t, res.Success)
		assert.Equal(t, model.ErrInvalidState, res.ErrorType)
	})
}

func TestPaymentService_Retry(t *testing.T) {
	ctx := context.Background()

	t.Run("Retry after failure creates a fresh attempt", func(t *testing.T) {
		svc, mockOrders, mockPayments, mockBusinesses := newTestPaymentService(&stubGateway{delaySec: 18})

		failed := *terminalPayment(model.PaymentFailed)
		mockPayments.On("GetByOrder", ctx, "ORD001").Return([]model.Payment{failed}, nil)
		mockOrders.On("GetByID", ctx, "ORD001").Return(pendingOrder(), nil)
		mockPayments.On("NextID", ctx).Return("PAY002", nil)
		mockPayments.On("Create", ctx, mock.AnythingOfType("*model.Payment")).Return(nil)
		mockOrders.On("UpdateStatus", ctx, "ORD001", model.OrderPaymentPending).Return(nil)
		mockBusinesses.On("GetByID", ctx, "biz1").Return(nil, nil)

		res := svc.Retry(ctx, "ORD001", "")

		require.True(t, res.Success)
		data := res.Data.(*InitiationData)
		assert.Equal(t, "PAY002", data.PaymentID)
		// Phone reused from the failed attempt
		assert.Equal(t, "+254712345678", data.Phone)
		assert.Equal(t, 1, data.RetryCount)
		assert.Contains(t, res.Message, "attempt 2")
	})

	t.Run("No prior attempt initiates a first attempt", func(t *testing.T) {
		svc, mockOrders, mockPayments, mockBusinesses := newTestPaymentService(&stubGateway{delaySec: 18})

		mockPayments.On("GetByOrder", ctx, "ORD001").Return([]model.Payment{}, nil)
		mockOrders.On("GetByID", ctx, "ORD001").Return(pendingOrder(), nil)
		mockPayments.On("NextID", ctx).Return("PAY001", nil)
		mockPayments.On("Create", ctx, mock.AnythingOfType("*model.Payment")).Return(nil)
		mockOrders.On("UpdateStatus", ctx, "ORD001", model.OrderPaymentPending).Return(nil)
		mockBusinesses.On("GetByID", ctx, "biz1").Return(nil, nil)

		res := svc.Retry(ctx, "ORD001", "")

		require.True(t, res.Success)
		data := res.Data.(*InitiationData)
		assert.Equal(t, "PAY001", data.PaymentID)
		// Phone falls back to the order's number; no closed attempt to reuse.
		assert.Equal(t, "+254712345678", data.Phone)
		assert.Equal(t, 0, data.RetryCount)
		assert.Contains(t, res.Message, "attempt 1")
	})

	t.Run("Pending attempts are not counted as retries", func(t *testing.T) {
		svc, mockOrders, mockPayments, mockBusinesses := newTestPaymentService(&stubGateway{delaySec: 18})

		pending := *pendingPayment()
		mockPayments.On("GetByOrder", ctx, "ORD001").Return([]model.Payment{pending}, nil)
		mockOrders.On("GetByID", ctx, "ORD001").Return(pendingOrder(), nil)
		mockPayments.On("NextID", ctx).Return("PAY002", nil)
		mockPayments.On("Create", ctx, mock.AnythingOfType("*model.Payment")).Return(nil)
		mockOrders.On("UpdateStatus", ctx, "ORD001", model.OrderPaymentPending).Return(nil)
		mockBusinesses.On("GetByID", ctx, "biz1").Return(nil, nil)

		res := svc.Retry(ctx, "ORD001", "")

		require.True(t, res.Success)
		data := res.Data.(*InitiationData)
		assert.Equal(t, 0, data.RetryCount)
	})

	t.Run("Retry on a paid order hits the idempotency guard", func(t *testing.T) {
		svc, mockOrders, mockPayments, _ := newTestPaymentService(&stubGateway{})

		order := pendingOrder()
		order.PaymentStatus = model.OrderPaymentStatusCompleted

		cancelled := *terminalPayment(model.PaymentCancelled)
		mockPayments.On("GetByOrder", ctx, "ORD001").Return([]model.Payment{cancelled}, nil)
		mockOrders.On("GetByID", ctx, "ORD001").Return(order, nil)

		res := svc.Retry(ctx, "ORD001", "")

		require.False(t, res.Success)
		assert.Equal(t, model.ErrAlreadyPaid, res.ErrorType)
	})
}
