package handler

import (
	"net/http"
	"strings"

	"sasabot/internal/repository"

	"github.com/rs/zerolog"
)

// OrderHandler handles order read requests. Orders are created by the
// conversation layer's checkout flow; this service only reads them and
// drives their payment lifecycle.
type OrderHandler struct {
	orders repository.OrderRepository
	logger zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(orders repository.OrderRepository, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		orders: orders,
		logger: logger.With().Str("handler", "order").Logger(),
	}
}

// GetByID handles GET /api/orders/{id} requests.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	orderID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/orders/"), "/")
	if orderID == "" {
		writeError(w, r, http.StatusBadRequest, "order ID is required", h.logger)
		return
	}

	order, err := h.orders.GetByID(r.Context(), orderID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "failed to retrieve order", h.logger)
		return
	}
	if order == nil {
		writeError(w, r, http.StatusNotFound, "order not found", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}
