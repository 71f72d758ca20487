package handler

import (
	"net/http"

	"github.com/autoimport/shipquote-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Catalog Handlers (companies + vehicles)
// ============================================================

// GET /v1/companies
func listCompaniesHandler(svc *service.ShippingQuoteService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/companies")
		defer span.End()

		companies, err := svc.ListCompanies(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, companies)
	}
}

// GET /v1/vehicles/{vehicleId}
func getVehicleHandler(svc *service.ShippingQuoteService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/vehicles/{vehicleId}")
		defer span.End()

		vehicleID := chi.URLParam(r, "vehicleId")
		span.SetAttributes(attribute.String("vehicle.id", vehicleID))

		vehicle, err := svc.GetVehicle(ctx, vehicleID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, vehicle)
	}
}
