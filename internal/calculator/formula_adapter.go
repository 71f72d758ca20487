package calculator

import (
	"context"
	"math"

	"github.com/autoimport/shipquote-go/internal/domain"
	"github.com/autoimport/shipquote-go/internal/infra/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// FormulaAdapter prices a shipment purely from the company's stored fee
// fields, with no network call:
//
//	total = base_price + customs_fee + service_fee + broker_fee
//	      + price_per_mile * distance_miles (+ insurance when set)
//
// The distance comes from the request context, resolved by the request
// builder's origin-to-port lookup. The adapter never invents one.
type FormulaAdapter struct {
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewFormulaAdapter creates the fee-formula adapter.
func NewFormulaAdapter(metrics *observability.Metrics, logger *zap.Logger) *FormulaAdapter {
	return &FormulaAdapter{metrics: metrics, logger: logger}
}

// Type reports the strategy tag this adapter serves.
func (a *FormulaAdapter) Type() domain.CalculatorType {
	return domain.CalculatorTypeFormula
}

// Calculate computes the fee breakdown. It fails only when a fee field is
// non-finite, which indicates a corrupt company record.
func (a *FormulaAdapter) Calculate(ctx context.Context, req *domain.StandardCalculatorRequest, company *domain.Company) *domain.StandardCalculatorResponse {
	_, span := tracer.Start(ctx, "FormulaAdapter.Calculate")
	defer span.End()
	span.SetAttributes(attribute.String("company.id", company.ID))

	return withFailureRecovery(func() (*domain.StandardCalculatorResponse, error) {
		fees := company.Fees
		required := map[string]float64{
			"base_price":     fees.BasePrice,
			"price_per_mile": fees.PricePerMile,
			"customs_fee":    fees.CustomsFee,
			"service_fee":    fees.ServiceFee,
			"broker_fee":     fees.BrokerFee,
		}
		for name, v := range required {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				a.logger.Warn("formula fee field is not finite",
					zap.String("company_id", company.ID),
					zap.String("field", name),
				)
				return failure("formula error: fee field %s is not a finite number", name), nil
			}
		}

		distance := req.DistanceMiles
		mileage := fees.PricePerMile * distance
		total := fees.BasePrice + fees.CustomsFee + fees.ServiceFee + fees.BrokerFee + mileage

		breakdown := map[string]any{
			"base_price":  fees.BasePrice,
			"customs_fee": fees.CustomsFee,
			"service_fee": fees.ServiceFee,
			"broker_fee":  fees.BrokerFee,
			"mileage":     mileage,
		}
		if fees.Insurance != nil {
			if math.IsNaN(*fees.Insurance) || math.IsInf(*fees.Insurance, 0) {
				return failure("formula error: fee field insurance is not a finite number"), nil
			}
			total += *fees.Insurance
			breakdown["insurance"] = *fees.Insurance
		}

		return &domain.StandardCalculatorResponse{
			Success:       true,
			TotalPrice:    total,
			DistanceMiles: distance,
			Currency:      "USD",
			Breakdown:     breakdown,
		}, nil
	})
}
