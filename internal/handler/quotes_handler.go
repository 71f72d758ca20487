package handler

import (
	"encoding/json"
	"net/http"

	"github.com/autoimport/shipquote-go/internal/domain"
	"github.com/autoimport/shipquote-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Quote Handlers
// ============================================================

// quoteSetResponse wraps a QuoteSet with the requested display currency.
// Prices stay USD-denominated; conversion happens client-side.
type quoteSetResponse struct {
	*domain.QuoteSet
	DisplayCurrency string `json:"display_currency"`
}

// vehicleQuotesResponse wraps per-vehicle quote sets.
type vehicleQuotesResponse struct {
	Results         []domain.VehicleQuotes `json:"results"`
	DisplayCurrency string                 `json:"display_currency"`
}

// GET /v1/vehicles/{vehicleId}/quotes
func vehicleQuotesHandler(svc *service.ShippingQuoteService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/vehicles/{vehicleId}/quotes")
		defer span.End()

		vehicleID := chi.URLParam(r, "vehicleId")
		if vehicleID == "" {
			writeError(w, http.StatusBadRequest, "vehicle_id is required")
			return
		}
		span.SetAttributes(attribute.String("vehicle.id", vehicleID))

		result, err := svc.CalculateQuotesForVehicle(ctx, vehicleID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, vehicleQuotesResponse{
			Results:         []domain.VehicleQuotes{*result},
			DisplayCurrency: displayCurrency(r),
		})
	}
}

// POST /v1/quotes/calculate
func calculateQuotesHandler(svc *service.ShippingQuoteService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/quotes/calculate")
		defer span.End()

		var input domain.CalculatorInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if input.City == "" {
			writeError(w, http.StatusBadRequest, "city is required")
			return
		}
		if input.BuyPrice < 0 {
			writeError(w, http.StatusBadRequest, "buy_price must not be negative")
			return
		}
		span.SetAttributes(attribute.String("quote.city", input.City))

		set, err := svc.CalculateQuotes(ctx, input)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, quoteSetResponse{
			QuoteSet:        set,
			DisplayCurrency: displayCurrency(r),
		})
	}
}

// GET /v1/quotes/search
func searchQuotesHandler(svc *service.ShippingQuoteService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/quotes/search")
		defer span.End()

		filters := domain.VehicleFilters{
			Make:     r.URL.Query().Get("make"),
			Model:    r.URL.Query().Get("model"),
			Category: r.URL.Query().Get("category"),
			YearFrom: queryInt(r, "year_from", 0),
			YearTo:   queryInt(r, "year_to", 0),
		}
		limit := queryInt(r, "limit", 20)
		offset := queryInt(r, "offset", 0)
		perVehicle := queryInt(r, "quotes_per_vehicle", 3)

		results, err := svc.SearchQuotesForVehicles(ctx, filters, limit, offset, perVehicle)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, vehicleQuotesResponse{
			Results:         results,
			DisplayCurrency: displayCurrency(r),
		})
	}
}

// POST /v1/quotes/compare
func compareQuotesHandler(svc *service.ShippingQuoteService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/quotes/compare")
		defer span.End()

		var req struct {
			VehicleIDs       []string `json:"vehicle_ids"`
			QuotesPerVehicle int      `json:"quotes_per_vehicle"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.QuotesPerVehicle <= 0 {
			req.QuotesPerVehicle = 3
		}
		span.SetAttributes(attribute.Int("vehicles.count", len(req.VehicleIDs)))

		results, err := svc.CompareVehicles(ctx, req.VehicleIDs, req.QuotesPerVehicle)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, vehicleQuotesResponse{
			Results:         results,
			DisplayCurrency: displayCurrency(r),
		})
	}
}

// ============================================================
// Admin Quote Handlers (JWT-guarded)
// ============================================================

// POST /v1/admin/quotes
func adminCreateQuoteHandler(svc *service.ShippingQuoteService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/admin/quotes")
		defer span.End()

		var req domain.CreateQuoteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		record, err := svc.CreateQuote(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		logger.Info("quote created by admin",
			zap.String("quote_id", record.ID),
			zap.String("admin", AdminSubjectFromContext(ctx)),
		)
		writeJSON(w, http.StatusCreated, record)
	}
}

// GET /v1/admin/quotes
func adminListQuotesHandler(svc *service.ShippingQuoteService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/quotes")
		defer span.End()

		page, pageSize := parsePagination(r)
		companyID := r.URL.Query().Get("company_id")

		records, err := svc.ListQuoteRecords(ctx, companyID, page, pageSize)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, records)
	}
}
