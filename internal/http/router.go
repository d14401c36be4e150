package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/shynadja/lapm-store-backend/internal/metrics"
	appmw "github.com/shynadja/lapm-store-backend/internal/middleware"
)

// Middleware gates mutating routes; wire middleware.RequireBearer here.
type Middleware = func(http.Handler) http.Handler

func NewOrderRouter(h *OrderHandler, auth Middleware, m *metrics.ServerMetrics) http.Handler {
	r := newBaseRouter(m)

	r.Get("/health", healthHandler("order-service"))
	r.Handle("/metrics", m.Handler())

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.ListOrders)
		r.Get("/{orderId}", h.GetOrder)
		r.With(auth).Post("/", h.CreateOrder)
		r.With(auth).Put("/{orderId}", h.UpdateOrder)
	})

	return r
}

func NewProductRouter(h *ProductHandler, auth Middleware, m *metrics.ServerMetrics) http.Handler {
	r := newBaseRouter(m)

	r.Get("/health", healthHandler("product-service"))
	r.Handle("/metrics", m.Handler())

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Get("/{productId}", h.GetProduct)
		r.With(auth).Post("/", h.CreateProduct)
		r.With(auth).Put("/{productId}", h.UpdateProduct)
		r.With(auth).Delete("/{productId}", h.DeleteProduct)
	})

	r.Route("/product_types", func(r chi.Router) {
		r.Get("/", h.ListProductTypes)
		r.With(auth).Post("/", h.CreateProductType)
	})

	return r
}

func newBaseRouter(m *metrics.ServerMetrics) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Logger)
	r.Use(appmw.CORS([]string{"*"}))
	r.Use(m.Middleware)
	return r
}

func healthHandler(service string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"service": service,
		})
	}
}
