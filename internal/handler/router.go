package handler

import (
	"net/http"
	"time"

	"github.com/autoimport/shipquote-go/internal/infra/observability"
	"github.com/autoimport/shipquote-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svc *service.ShippingQuoteService, metrics *observability.Metrics, logger *zap.Logger, adminJWTSecret string) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler())
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// Catalog
		r.Get("/companies", listCompaniesHandler(svc, logger))
		r.Get("/vehicles/{vehicleId}", getVehicleHandler(svc, logger))

		// Quotes
		r.Get("/vehicles/{vehicleId}/quotes", vehicleQuotesHandler(svc, logger))
		r.Post("/quotes/calculate", calculateQuotesHandler(svc, logger))
		r.Get("/quotes/search", searchQuotesHandler(svc, logger))
		r.Post("/quotes/compare", compareQuotesHandler(svc, logger))

		// Metrics snapshot
		r.Get("/metrics/quotes", quoteMetricsHandler(metrics))

		// Admin (JWT-guarded)
		r.Route("/admin", func(r chi.Router) {
			r.Use(AdminAuthMiddleware(adminJWTSecret, logger))
			r.Post("/quotes", adminCreateQuoteHandler(svc, logger))
			r.Get("/quotes", adminListQuotesHandler(svc, logger))
		})
	})

	return r
}

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func quoteMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetQuoteSnapshot())
	}
}
