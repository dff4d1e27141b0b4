package router

import (
	"net/http"
	"strings"

	"sasabot/internal/handler"
	"sasabot/internal/middleware"

	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	catalogHandler *handler.CatalogHandler,
	paymentHandler *handler.PaymentHandler,
	orderHandler *handler.OrderHandler,
	apiKey string,
	logger zerolog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	// Business-scoped catalog routes: list/search/add products, low-stock report
	mux.HandleFunc("/api/businesses/", catalogHandler.Products)

	// Product-scoped catalog routes: update, delete, stock adjustment
	mux.HandleFunc("/api/products/", catalogHandler.Product)

	// Payment lifecycle routes
	paymentRouteHandler := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/payments" || r.URL.Path == "/api/payments/" {
			paymentHandler.Initiate(w, r)
			return
		}
		paymentHandler.Payment(w, r)
	}
	mux.HandleFunc("/api/payments", paymentRouteHandler)
	mux.HandleFunc("/api/payments/", paymentRouteHandler)

	// Order routes: read, payment retry
	orderRouteHandler := func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(strings.TrimSuffix(r.URL.Path, "/"), "/retry-payment") {
			paymentHandler.RetryPayment(w, r)
			return
		}
		if strings.HasPrefix(r.URL.Path, "/api/orders/") && r.URL.Path != "/api/orders/" {
			orderHandler.GetByID(w, r)
			return
		}
		http.Error(w, "not found", http.StatusNotFound)
	}
	mux.HandleFunc("/api/orders", orderRouteHandler)
	mux.HandleFunc("/api/orders/", orderRouteHandler)

	// Apply middleware in order: Recovery -> Logging -> CORS -> APIKeyAuth
	var h http.Handler = mux
	h = middleware.APIKeyAuth(apiKey, logger)(h)
	h = middleware.CORS(h)
	h = middleware.Logging(logger)(h)
	h = middleware.Recovery(logger)(h)

	return h
}
