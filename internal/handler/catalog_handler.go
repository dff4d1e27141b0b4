package handler

import (
	"net/http"
	"strconv"
	"strings"

	"sasabot/internal/catalog"
	"sasabot/internal/model"

	"github.com/rs/zerolog"
)

// CatalogHandler handles vendor catalog HTTP requests. The acting
// business comes from the URL for business-scoped routes and from the
// X-Business-ID header for product-scoped routes.
type CatalogHandler struct {
	service *catalog.Service
	logger  zerolog.Logger
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(service *catalog.Service, logger zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		logger:  logger.With().Str("handler", "catalog").Logger(),
	}
}

// businessSession builds a vendor session for the given business ID.
func businessSession(businessID string) model.SessionContext {
	return model.SessionContext{BusinessID: businessID, Role: model.RoleVendor}
}

// Products routes /api/businesses/{id}/products and
// /api/businesses/{id}/low-stock requests.
func (h *CatalogHandler) Products(w http.ResponseWriter, r *http.Request) {
	// Expecting path: /api/businesses/{id}/products or .../low-stock
	rest := strings.TrimPrefix(r.URL.Path, "/api/businesses/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) != 2 || parts[0] == "" {
		writeError(w, r, http.StatusNotFound, "not found", h.logger)
		return
	}
	businessID := parts[0]

	switch parts[1] {
	case "products":
		switch r.Method {
		case http.MethodGet:
			h.list(w, r, businessID)
		case http.MethodPost:
			h.add(w, r, businessID)
		default:
			writeError(w, r, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		}
	case "low-stock":
		if r.Method != http.MethodGet {
			writeError(w, r, http.StatusMethodNotAllowed, "method not allowed", h.logger)
			return
		}
		h.lowStock(w, r, businessID)
	default:
		writeError(w, r, http.StatusNotFound, "not found", h.logger)
	}
}

func (h *CatalogHandler) list(w http.ResponseWriter, r *http.Request, businessID string) {
	filter := catalog.ListFilter{
		Category: r.URL.Query().Get("category"),
		Search:   r.URL.Query().Get("search"),
	}
	writeResult(w, h.service.ListProducts(r.Context(), businessSession(businessID), filter))
}

func (h *CatalogHandler) add(w http.ResponseWriter, r *http.Request, businessID string) {
	var in catalog.ProductInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}
	writeResult(w, h.service.AddProduct(r.Context(), businessSession(businessID), in))
}

func (h *CatalogHandler) lowStock(w http.ResponseWriter, r *http.Request, businessID string) {
	threshold := 0
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		var err error
		threshold, err = strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid threshold parameter", h.logger)
			return
		}
	}
	writeResult(w, h.service.LowStockReport(r.Context(), businessSession(businessID), threshold))
}

// Product routes /api/products/{id} and /api/products/{id}/stock
// requests. The acting business is taken from the X-Business-ID header.
func (h *CatalogHandler) Product(w http.ResponseWriter, r *http.Request) {
	businessID := r.Header.Get("X-Business-ID")
	if businessID == "" {
		writeError(w, r, http.StatusBadRequest, "X-Business-ID header is required", h.logger)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/products/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, r, http.StatusBadRequest, "product ID is required", h.logger)
		return
	}
	productID := parts[0]

	switch {
	case len(parts) == 1 && r.Method == http.MethodPatch:
		h.update(w, r, businessID, productID)
	case len(parts) == 1 && r.Method == http.MethodDelete:
		writeResult(w, h.service.DeleteProduct(r.Context(), businessSession(businessID), productID))
	case len(parts) == 2 && parts[1] == "stock" && r.Method == http.MethodPost:
		h.stock(w, r, businessID, productID)
	case len(parts) == 1:
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed", h.logger)
	default:
		writeError(w, r, http.StatusNotFound, "not found", h.logger)
	}
}

func (h *CatalogHandler) update(w http.ResponseWriter, r *http.Request, businessID, productID string) {
	var in catalog.UpdateInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}
	writeResult(w, h.service.UpdateProduct(r.Context(), businessSession(businessID), productID, in))
}

type stockRequest struct {
	Quantity  int    `json:"quantity"`
	Operation string `json:"operation"`
}

func (h *CatalogHandler) stock(w http.ResponseWriter, r *http.Request, businessID, productID string) {
	var req stockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}
	if req.Operation == "" {
		req.Operation = catalog.StockSet
	}
	writeResult(w, h.service.AdjustStock(r.Context(), businessSession(businessID), productID, req.Quantity, req.Operation))
}
