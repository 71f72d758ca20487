package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/autoimport/shipquote-go/internal/calculator"
	"github.com/autoimport/shipquote-go/internal/domain"
	"github.com/autoimport/shipquote-go/internal/infra/observability"
	"github.com/autoimport/shipquote-go/internal/infra/resilience"
	"github.com/autoimport/shipquote-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("service/quotes")

// Placeholder buy price used by the best-effort fallback when the origin
// city cannot be matched. The resulting prices are labeled as estimates.
const fallbackBuyPrice = 1

// ShippingQuoteService aggregates per-company shipping quotes: it fans
// out one calculator call per active company, tolerates individual
// failures, and returns the comparable subset.
type ShippingQuoteService struct {
	companies port.CompanyStore
	vehicles  port.VehicleStore
	quotes    port.QuoteStore
	builder   *calculator.RequestBuilder
	factory   *calculator.Factory
	bulkhead  *resilience.Bulkhead
	metrics   *observability.Metrics
	logger    *zap.Logger

	fallbackCity string
}

// NewShippingQuoteService creates the quote service with all dependencies injected.
func NewShippingQuoteService(
	companies port.CompanyStore,
	vehicles port.VehicleStore,
	quotes port.QuoteStore,
	builder *calculator.RequestBuilder,
	factory *calculator.Factory,
	bulkhead *resilience.Bulkhead,
	metrics *observability.Metrics,
	logger *zap.Logger,
	fallbackCity string,
) *ShippingQuoteService {
	return &ShippingQuoteService{
		companies:    companies,
		vehicles:     vehicles,
		quotes:       quotes,
		builder:      builder,
		factory:      factory,
		bulkhead:     bulkhead,
		metrics:      metrics,
		logger:       logger,
		fallbackCity: fallbackCity,
	}
}

// ComputeQuotesWithCalculatorInput runs the matching adapter for every
// company concurrently and collects the successful quotes, sorted by
// price. Failed companies are omitted from the list; they never abort
// the aggregation, even when all of them fail.
func (s *ShippingQuoteService) ComputeQuotesWithCalculatorInput(ctx context.Context, req *domain.StandardCalculatorRequest, companies []domain.Company) *domain.QuoteSet {
	ctx, span := tracer.Start(ctx, "ShippingQuoteService.ComputeQuotes")
	defer span.End()
	span.SetAttributes(attribute.Int("companies.count", len(companies)))

	// Results are matched back to companies by index, not call order.
	results := make([]*domain.StandardCalculatorResponse, len(companies))

	g, gCtx := errgroup.WithContext(ctx)
	for i := range companies {
		i := i
		company := &companies[i]
		g.Go(func() error {
			if err := s.bulkhead.Acquire(gCtx); err != nil {
				return nil // cancelled while queued; slot stays nil
			}
			defer s.bulkhead.Release()

			adapter := s.factory.GetAdapter(company)
			results[i] = adapter.Calculate(gCtx, req, company)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; failures live in results

	set := &domain.QuoteSet{Quotes: make([]domain.Quote, 0, len(companies))}
	for i, resp := range results {
		if resp == nil || !resp.Success {
			s.metrics.IncrQuote("failed")
			continue
		}
		s.metrics.IncrQuote("success")

		// Adapters agree on distance for the same request; take the
		// first successful non-zero report.
		if set.DistanceMiles == 0 && resp.DistanceMiles > 0 {
			set.DistanceMiles = resp.DistanceMiles
		}

		c := companies[i]
		set.Quotes = append(set.Quotes, domain.Quote{
			CompanyID:        c.ID,
			CompanyName:      c.Name,
			TotalPrice:       resp.TotalPrice,
			Currency:         resp.Currency,
			DeliveryTimeDays: c.DeliveryTimeDays,
			CalculatorType:   domain.ParseCalculatorType(string(c.CalculatorType)),
		})
	}

	if set.DistanceMiles == 0 {
		set.DistanceMiles = req.DistanceMiles
	}

	sort.SliceStable(set.Quotes, func(a, b int) bool {
		return set.Quotes[a].TotalPrice < set.Quotes[b].TotalPrice
	})
	return set
}

// CalculateQuotes aggregates quotes for raw calculator input (city,
// auction, buy price). An unmatched city degrades to the labeled
// fallback estimate instead of failing the request.
func (s *ShippingQuoteService) CalculateQuotes(ctx context.Context, input domain.CalculatorInput) (*domain.QuoteSet, error) {
	ctx, span := tracer.Start(ctx, "ShippingQuoteService.CalculateQuotes")
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.RecordCalcDuration("aggregate", time.Since(start))
	}()

	companies, err := s.companies.ListActiveCompanies(ctx)
	if err != nil {
		s.metrics.IncrRequest("error")
		return nil, fmt.Errorf("list companies: %w", err)
	}
	if len(companies) == 0 {
		s.metrics.IncrRequest("error")
		return nil, &domain.ErrNoCompanies{}
	}

	built := s.builder.Build(input)
	if !built.Success {
		set := s.fallbackEstimate(ctx, input, companies, built.UnmatchedCity)
		s.metrics.IncrRequest("success")
		return set, nil
	}

	set := s.ComputeQuotesWithCalculatorInput(ctx, built.Request, companies)
	s.metrics.IncrRequest("success")
	return set, nil
}

// fallbackEstimate is the deliberate best-effort branch for unmapped
// cities: rebuild the request against the configured fallback yard with
// a placeholder buy price, so the UI always has a price to show, and
// label the result so nobody mistakes it for a precise quote.
func (s *ShippingQuoteService) fallbackEstimate(ctx context.Context, input domain.CalculatorInput, companies []domain.Company, unmatchedCity string) *domain.QuoteSet {
	s.metrics.IncrUnmatchedCity()
	s.logger.Warn("origin city unmatched, returning baseline estimate",
		zap.String("city", unmatchedCity),
	)

	fallback := input
	fallback.City = s.fallbackCity
	fallback.BuyPrice = fallbackBuyPrice

	built := s.builder.Build(fallback)
	if !built.Success {
		// Fallback yard misconfigured; an empty estimate is still a
		// well-formed response for the caller.
		s.logger.Error("fallback city did not match any auction yard",
			zap.String("fallback_city", s.fallbackCity),
		)
		return &domain.QuoteSet{
			Quotes:        []domain.Quote{},
			Estimate:      true,
			UnmatchedCity: unmatchedCity,
		}
	}

	set := s.ComputeQuotesWithCalculatorInput(ctx, built.Request, companies)
	set.Estimate = true
	set.UnmatchedCity = unmatchedCity
	return set
}

// CalculateQuotesForVehicle aggregates quotes for one catalog vehicle.
func (s *ShippingQuoteService) CalculateQuotesForVehicle(ctx context.Context, vehicleID string) (*domain.VehicleQuotes, error) {
	ctx, span := tracer.Start(ctx, "ShippingQuoteService.CalculateQuotesForVehicle")
	defer span.End()
	span.SetAttributes(attribute.String("vehicle.id", vehicleID))

	vehicle, err := s.vehicles.GetVehicle(ctx, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("vehicle fetch: %w", err)
	}

	set, err := s.CalculateQuotes(ctx, calculatorInputForVehicle(vehicle))
	if err != nil {
		return nil, err
	}
	return &domain.VehicleQuotes{Vehicle: vehicle, QuoteSet: *set}, nil
}

// SearchQuotesForVehicles runs the aggregation once per matching catalog
// vehicle and keeps the cheapest quotesPerVehicle offers for each. The
// per-call cost is dominated by the default-calculator cache hit rate,
// since repeated searches share request parameters.
func (s *ShippingQuoteService) SearchQuotesForVehicles(ctx context.Context, filters domain.VehicleFilters, limit, offset, quotesPerVehicle int) ([]domain.VehicleQuotes, error) {
	ctx, span := tracer.Start(ctx, "ShippingQuoteService.SearchQuotesForVehicles")
	defer span.End()

	vehicles, err := s.vehicles.SearchVehicles(ctx, filters, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("vehicle search: %w", err)
	}

	out := make([]domain.VehicleQuotes, 0, len(vehicles))
	for i := range vehicles {
		v := vehicles[i]
		set, err := s.CalculateQuotes(ctx, calculatorInputForVehicle(&v))
		if err != nil {
			return nil, err
		}
		truncateQuotes(set, quotesPerVehicle)
		out = append(out, domain.VehicleQuotes{Vehicle: &v, QuoteSet: *set})
	}
	return out, nil
}

// CompareVehicles aggregates the cheapest-N quotes for each requested
// vehicle id.
func (s *ShippingQuoteService) CompareVehicles(ctx context.Context, vehicleIDs []string, quotesPerVehicle int) ([]domain.VehicleQuotes, error) {
	ctx, span := tracer.Start(ctx, "ShippingQuoteService.CompareVehicles")
	defer span.End()

	if len(vehicleIDs) == 0 {
		return nil, &domain.ErrValidation{Field: "vehicle_ids", Message: "must not be empty"}
	}

	out := make([]domain.VehicleQuotes, 0, len(vehicleIDs))
	for _, id := range vehicleIDs {
		vq, err := s.CalculateQuotesForVehicle(ctx, id)
		if err != nil {
			return nil, err
		}
		truncateQuotes(&vq.QuoteSet, quotesPerVehicle)
		out = append(out, *vq)
	}
	return out, nil
}

// CreateQuote persists a quote explicitly through the admin surface,
// decoupled from live calculation.
func (s *ShippingQuoteService) CreateQuote(ctx context.Context, req *domain.CreateQuoteRequest) (*domain.QuoteRecord, error) {
	ctx, span := tracer.Start(ctx, "ShippingQuoteService.CreateQuote")
	defer span.End()

	if req.CompanyID == "" {
		return nil, &domain.ErrValidation{Field: "company_id", Message: "is required"}
	}
	if req.TotalPrice <= 0 {
		return nil, &domain.ErrValidation{Field: "total_price", Message: "must be positive"}
	}

	if _, err := s.companies.GetCompany(ctx, req.CompanyID); err != nil {
		return nil, fmt.Errorf("company fetch: %w", err)
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	record := &domain.QuoteRecord{
		ID:          uuid.New().String(),
		CompanyID:   req.CompanyID,
		VehicleID:   req.VehicleID,
		UserID:      req.UserID,
		TotalPrice:  req.TotalPrice,
		Currency:    currency,
		Status:      "created",
		Description: req.Description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.quotes.CreateQuote(ctx, record); err != nil {
		return nil, fmt.Errorf("quote create: %w", err)
	}

	s.logger.Info("admin quote persisted",
		zap.String("quote_id", record.ID),
		zap.String("company_id", record.CompanyID),
		zap.Float64("total_price", record.TotalPrice),
	)
	return record, nil
}

// ListQuoteRecords lists persisted admin quotes.
func (s *ShippingQuoteService) ListQuoteRecords(ctx context.Context, companyID string, page, pageSize int) ([]domain.QuoteRecord, error) {
	ctx, span := tracer.Start(ctx, "ShippingQuoteService.ListQuoteRecords")
	defer span.End()

	return s.quotes.ListQuotes(ctx, companyID, page, pageSize)
}

// ListCompanies lists the active logistics companies.
func (s *ShippingQuoteService) ListCompanies(ctx context.Context) ([]domain.Company, error) {
	ctx, span := tracer.Start(ctx, "ShippingQuoteService.ListCompanies")
	defer span.End()

	return s.companies.ListActiveCompanies(ctx)
}

// GetVehicle fetches one catalog vehicle.
func (s *ShippingQuoteService) GetVehicle(ctx context.Context, vehicleID string) (*domain.Vehicle, error) {
	ctx, span := tracer.Start(ctx, "ShippingQuoteService.GetVehicle")
	defer span.End()

	return s.vehicles.GetVehicle(ctx, vehicleID)
}

func calculatorInputForVehicle(v *domain.Vehicle) domain.CalculatorInput {
	return domain.CalculatorInput{
		City:            v.City,
		BuyPrice:        v.BuyPrice,
		Auction:         v.Auction,
		VehicleCategory: v.Category,
		ListingURL:      v.ListingURL,
	}
}

func truncateQuotes(set *domain.QuoteSet, n int) {
	if n > 0 && len(set.Quotes) > n {
		set.Quotes = set.Quotes[:n]
	}
}
