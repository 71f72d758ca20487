package calculator

import (
	"net/http"

	"github.com/autoimport/shipquote-go/internal/domain"
	"github.com/autoimport/shipquote-go/internal/infra/observability"
	"github.com/autoimport/shipquote-go/internal/infra/resilience"
	"github.com/autoimport/shipquote-go/internal/port"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Factory selects the calculation strategy for a company. Selection
// always succeeds: unknown or empty calculator tags fall back to the
// default adapter, so there is no error path.
type Factory struct {
	defaultAdapter *DefaultAdapter
	customAdapter  *ConfigurableAdapter
	formulaAdapter *FormulaAdapter
}

// NewFactory builds the three adapters with shared infrastructure.
func NewFactory(
	httpClient *http.Client,
	calculatorAPIURL string,
	quoteCache port.Cache[string],
	cb *gobreaker.CircuitBreaker,
	cfg resilience.Config,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Factory {
	return &Factory{
		defaultAdapter: NewDefaultAdapter(httpClient, calculatorAPIURL, quoteCache, cb, cfg, metrics, logger),
		customAdapter:  NewConfigurableAdapter(httpClient, cfg, metrics, logger),
		formulaAdapter: NewFormulaAdapter(metrics, logger),
	}
}

// GetAdapter returns the adapter matching the company's calculator type.
// The switch is exhaustive over the closed CalculatorType set; adding a
// strategy means adding a case here, checked at review time in one place.
func (f *Factory) GetAdapter(company *domain.Company) Adapter {
	switch domain.ParseCalculatorType(string(company.CalculatorType)) {
	case domain.CalculatorTypeCustomAPI:
		return f.customAdapter
	case domain.CalculatorTypeFormula:
		return f.formulaAdapter
	case domain.CalculatorTypeDefault:
		return f.defaultAdapter
	default:
		return f.defaultAdapter
	}
}
