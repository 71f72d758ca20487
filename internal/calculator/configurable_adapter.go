package calculator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/autoimport/shipquote-go/internal/domain"
	"github.com/autoimport/shipquote-go/internal/infra/observability"
	"github.com/autoimport/shipquote-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// standardFieldNames is the wire vocabulary of StandardCalculatorRequest,
// used when a company's request mapping omits a field.
var standardFieldNames = []string{
	"buyprice", "auction", "vehicletype", "usacity", "destinationport", "vehiclecategory",
}

// ConfigurableAdapter calls a company-specific calculator endpoint,
// translating field names both ways through the mappings stored on the
// company record. Custom calculators are assumed cheap and per-company,
// so their responses are not cached here.
type ConfigurableAdapter struct {
	httpClient *http.Client
	cfg        resilience.Config
	metrics    *observability.Metrics
	logger     *zap.Logger

	// One breaker per endpoint, so a single company's outage does not
	// trip the circuit for every custom integration.
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewConfigurableAdapter creates the custom-API adapter.
func NewConfigurableAdapter(httpClient *http.Client, cfg resilience.Config, metrics *observability.Metrics, logger *zap.Logger) *ConfigurableAdapter {
	return &ConfigurableAdapter{
		httpClient: httpClient,
		cfg:        cfg,
		metrics:    metrics,
		logger:     logger,
		breakers:   make(map[string]*gobreaker.CircuitBreaker),
	}
}

// Type reports the strategy tag this adapter serves.
func (a *ConfigurableAdapter) Type() domain.CalculatorType {
	return domain.CalculatorTypeCustomAPI
}

func (a *ConfigurableAdapter) breakerFor(endpoint string) *gobreaker.CircuitBreaker {
	a.mu.Lock()
	defer a.mu.Unlock()

	if cb, ok := a.breakers[endpoint]; ok {
		return cb
	}
	cb := resilience.NewCircuitBreaker("custom-calculator:" + endpoint)
	a.breakers[endpoint] = cb
	return cb
}

// Calculate translates the request through the company's field mapping,
// calls its endpoint, and translates the reply back. A missing or
// incomplete mapping is a failure, not a panic.
func (a *ConfigurableAdapter) Calculate(ctx context.Context, req *domain.StandardCalculatorRequest, company *domain.Company) *domain.StandardCalculatorResponse {
	ctx, span := tracer.Start(ctx, "ConfigurableAdapter.Calculate")
	defer span.End()
	span.SetAttributes(attribute.String("company.id", company.ID))

	if !company.CustomAPI.Valid() {
		a.logger.Warn("custom calculator configuration incomplete",
			zap.String("company_id", company.ID),
		)
		return failure("configuration error: incomplete custom calculator config for company %s", company.ID)
	}

	start := time.Now()
	resp := withFailureRecovery(func() (*domain.StandardCalculatorResponse, error) {
		return a.call(ctx, req, company)
	})
	a.metrics.RecordCalcDuration(string(domain.CalculatorTypeCustomAPI), time.Since(start))

	if !resp.Success {
		a.metrics.IncrExternalError("custom-calculator")
		a.logger.Warn("custom calculator call failed",
			zap.String("company_id", company.ID),
			zap.String("endpoint", company.CustomAPI.EndpointURL),
			zap.String("error", resp.Error),
		)
	}
	return resp
}

func (a *ConfigurableAdapter) call(ctx context.Context, req *domain.StandardCalculatorRequest, company *domain.Company) (*domain.StandardCalculatorResponse, error) {
	cfg := company.CustomAPI

	// Standard request as a loose map, then rename per the mapping.
	// Fields without a mapping entry keep their standard names.
	raw, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	var standard map[string]any
	if err := json.Unmarshal(raw, &standard); err != nil {
		return nil, err
	}

	body := make(map[string]any, len(standardFieldNames))
	for _, name := range standardFieldNames {
		v, ok := standard[name]
		if !ok {
			continue
		}
		target := name
		if mapped, ok := cfg.RequestMapping[name]; ok && mapped != "" {
			target = mapped
		}
		body[target] = v
	}

	var payload map[string]any
	cb := a.breakerFor(cfg.EndpointURL)

	_, err = cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, a.cfg, func() error {
			encoded, err := json.Marshal(body)
			if err != nil {
				return err
			}

			httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.EndpointURL, bytes.NewReader(encoded))
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
				return fmt.Errorf("custom calculator returned status %d", httpResp.StatusCode)
			}

			return json.NewDecoder(httpResp.Body).Decode(&payload)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("custom calculator [%s]: %w", company.Name, err)
	}

	price, ok := firstNumber(payload, []string{cfg.ResponseMapping.PriceField})
	if !ok {
		return nil, fmt.Errorf("custom calculator [%s]: response missing price field %q", company.Name, cfg.ResponseMapping.PriceField)
	}

	distance := 0.0
	if cfg.ResponseMapping.DistanceField != "" {
		distance, _ = firstNumber(payload, []string{cfg.ResponseMapping.DistanceField})
	}

	currency := "USD"
	if cfg.ResponseMapping.CurrencyField != "" {
		if c, ok := firstString(payload, []string{cfg.ResponseMapping.CurrencyField}); ok {
			currency = c
		}
	}

	return &domain.StandardCalculatorResponse{
		Success:       true,
		TotalPrice:    price,
		DistanceMiles: distance,
		Currency:      currency,
		Breakdown:     payload,
	}, nil
}
