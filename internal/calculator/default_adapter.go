package calculator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/autoimport/shipquote-go/internal/domain"
	"github.com/autoimport/shipquote-go/internal/infra/observability"
	"github.com/autoimport/shipquote-go/internal/infra/resilience"
	"github.com/autoimport/shipquote-go/internal/port"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("calculator")

// Candidate response field names, in precedence order. Upstream has
// renamed the totals more than once; keep old names accepted.
var (
	priceFields    = []string{"transportation_total", "transportationTotal", "shipping_total", "total"}
	distanceFields = []string{"distance_miles", "distanceMiles", "distance", "miles"}
	currencyFields = []string{"currency", "currency_code"}
)

// DefaultAdapter calls the shared external calculator API and caches the
// result for the configured TTL (24h by default). The cache key is fully
// derived from company id + request fields, so concurrent writers race to
// store the same value.
type DefaultAdapter struct {
	httpClient *http.Client
	apiURL     string
	cache      port.Cache[string]
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewDefaultAdapter creates the shared-API adapter.
func NewDefaultAdapter(
	httpClient *http.Client,
	apiURL string,
	quoteCache port.Cache[string],
	cb *gobreaker.CircuitBreaker,
	cfg resilience.Config,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *DefaultAdapter {
	return &DefaultAdapter{
		httpClient: httpClient,
		apiURL:     apiURL,
		cache:      quoteCache,
		cb:         cb,
		cfg:        cfg,
		metrics:    metrics,
		logger:     logger,
	}
}

// Type reports the strategy tag this adapter serves.
func (a *DefaultAdapter) Type() domain.CalculatorType {
	return domain.CalculatorTypeDefault
}

// cacheKey derives the cache key from company id plus the request fields
// that affect the price. Field order is fixed by the struct, so equal
// requests always serialize identically.
func (a *DefaultAdapter) cacheKey(req *domain.StandardCalculatorRequest, company *domain.Company) string {
	params, _ := json.Marshal(struct {
		BuyPrice        float64 `json:"buyprice"`
		Auction         string  `json:"auction"`
		VehicleType     string  `json:"vehicletype"`
		USACity         string  `json:"usacity"`
		DestinationPort string  `json:"destinationport"`
		VehicleCategory string  `json:"vehiclecategory"`
	}{
		req.BuyPrice, req.Auction, req.VehicleType,
		req.USACity, req.DestinationPort, req.VehicleCategory,
	})
	return fmt.Sprintf("calculator:company:%s:%s", company.ID, params)
}

// Calculate returns the shared calculator's price for the request,
// serving from cache when an unexpired entry exists.
func (a *DefaultAdapter) Calculate(ctx context.Context, req *domain.StandardCalculatorRequest, company *domain.Company) *domain.StandardCalculatorResponse {
	ctx, span := tracer.Start(ctx, "DefaultAdapter.Calculate")
	defer span.End()
	span.SetAttributes(attribute.String("company.id", company.ID))

	key := a.cacheKey(req, company)
	if raw, ok := a.cache.Get(key); ok {
		var cached domain.StandardCalculatorResponse
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			a.metrics.IncrCacheHit("quote")
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return &cached
		}
		// Corrupt entry: drop it and fall through to a fresh call.
		a.cache.Delete(key)
	}
	a.metrics.IncrCacheMiss("quote")

	start := time.Now()
	resp := withFailureRecovery(func() (*domain.StandardCalculatorResponse, error) {
		return a.call(ctx, req)
	})
	a.metrics.RecordCalcDuration(string(domain.CalculatorTypeDefault), time.Since(start))

	if !resp.Success {
		a.metrics.IncrExternalError("calculator")
		a.logger.Warn("default calculator call failed",
			zap.String("company_id", company.ID),
			zap.String("error", resp.Error),
		)
		return resp
	}

	if resp.TotalPrice <= 0 {
		// Likely an upstream contract change, not a free shipment.
		a.logger.Warn("default calculator returned non-positive price",
			zap.String("company_id", company.ID),
			zap.Float64("total_price", resp.TotalPrice),
			zap.String("usacity", req.USACity),
		)
	}

	if raw, err := json.Marshal(resp); err == nil {
		a.cache.Set(key, string(raw))
	}
	return resp
}

// call issues the POST to the shared calculator and maps its loosely
// specified reply into the standard response.
func (a *DefaultAdapter) call(ctx context.Context, req *domain.StandardCalculatorRequest) (*domain.StandardCalculatorResponse, error) {
	var payload map[string]any

	_, err := a.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, a.cfg, func() error {
			body, err := json.Marshal(req)
			if err != nil {
				return err
			}

			httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.apiURL, bytes.NewReader(body))
			if err != nil {
				return err
			}
			httpReq.Header.Set("Content-Type", "application/json")

			httpResp, err := a.httpClient.Do(httpReq)
			if err != nil {
				return err
			}
			defer httpResp.Body.Close()

			if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
				return fmt.Errorf("calculator API returned status %d", httpResp.StatusCode)
			}

			return json.NewDecoder(httpResp.Body).Decode(&payload)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("default calculator: %w", err)
	}

	price, _ := firstNumber(payload, priceFields)
	distance, _ := firstNumber(payload, distanceFields)
	currency, ok := firstString(payload, currencyFields)
	if !ok {
		currency = "USD"
	}

	return &domain.StandardCalculatorResponse{
		Success:       true,
		TotalPrice:    price,
		DistanceMiles: distance,
		Currency:      currency,
		Breakdown:     payload,
	}, nil
}
