package handler

import (
	"io"
	"net/http"
	"strings"

	"sasabot/internal/payment"

	"github.com/rs/zerolog"
)

// PaymentHandler handles payment lifecycle HTTP requests.
type PaymentHandler struct {
	service *payment.Service
	logger  zerolog.Logger
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(service *payment.Service, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		logger:  logger.With().Str("handler", "payment").Logger(),
	}
}

type initiateRequest struct {
	OrderID string `json:"order_id"`
	Phone   string `json:"phone,omitempty"`
}

// Initiate handles POST /api/payments requests.
func (h *PaymentHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	var req initiateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}
	if req.OrderID == "" {
		writeError(w, r, http.StatusBadRequest, "order_id is required", h.logger)
		return
	}

	writeResult(w, h.service.Initiate(r.Context(), req.OrderID, req.Phone))
}

type completeRequest struct {
	ForceSuccess *bool `json:"force_success,omitempty"`
}

// Payment routes /api/payments/{id} and its lifecycle sub-paths:
// GET status, POST complete/cancel/expire.
func (h *PaymentHandler) Payment(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/payments/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, r, http.StatusBadRequest, "payment ID is required", h.logger)
		return
	}
	paymentID := parts[0]

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			writeError(w, r, http.StatusMethodNotAllowed, "method not allowed", h.logger)
			return
		}
		writeResult(w, h.service.Status(r.Context(), paymentID))
		return
	}

	if len(parts) != 2 || r.Method != http.MethodPost {
		writeError(w, r, http.StatusNotFound, "not found", h.logger)
		return
	}

	switch parts[1] {
	case "complete":
		var req completeRequest
		// An empty body means the simulated gateway decides the outcome.
		if err := decodeJSON(r, &req); err != nil && err != io.EOF {
			writeError(w, r, http.StatusBadRequest, "invalid request body", h.logger)
			return
		}
		writeResult(w, h.service.Complete(r.Context(), paymentID, req.ForceSuccess))
	case "cancel":
		writeResult(w, h.service.Cancel(r.Context(), paymentID))
	case "expire":
		writeResult(w, h.service.Expire(r.Context(), paymentID))
	default:
		writeError(w, r, http.StatusNotFound, "not found", h.logger)
	}
}

type retryRequest struct {
	Phone string `json:"phone,omitempty"`
}

// RetryPayment handles POST /api/orders/{id}/retry-payment requests.
func (h *PaymentHandler) RetryPayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/orders/")
	orderID := strings.TrimSuffix(strings.Trim(rest, "/"), "/retry-payment")
	orderID = strings.Split(orderID, "/")[0]
	if orderID == "" {
		writeError(w, r, http.StatusBadRequest, "order ID is required", h.logger)
		return
	}

	var req retryRequest
	if err := decodeJSON(r, &req); err != nil && err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	writeResult(w, h.service.Retry(r.Context(), orderID, req.Phone))
}
