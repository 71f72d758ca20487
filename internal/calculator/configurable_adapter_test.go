package calculator_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/autoimport/shipquote-go/internal/calculator"
	"github.com/autoimport/shipquote-go/internal/domain"
	"github.com/autoimport/shipquote-go/internal/infra/observability"
	"github.com/autoimport/shipquote-go/internal/infra/resilience"

	"go.uber.org/zap"
)

func newConfigurableAdapter(t *testing.T) *calculator.ConfigurableAdapter {
	t.Helper()
	return calculator.NewConfigurableAdapter(
		&http.Client{Timeout: 2 * time.Second},
		resilience.Config{MaxRetries: 0, InitialBackoff: time.Millisecond},
		observability.NewMetrics(),
		zap.NewNop(),
	)
}

func customCompany(endpoint string) *domain.Company {
	return &domain.Company{
		ID:             "c-custom",
		Name:           "Custom Shipping Co",
		CalculatorType: domain.CalculatorTypeCustomAPI,
		CustomAPI: &domain.CustomAPIConfig{
			EndpointURL: endpoint,
			RequestMapping: map[string]string{
				"buyprice": "purchase_price",
				"usacity":  "origin_city",
			},
			ResponseMapping: domain.ResponseMapping{
				PriceField:    "cost",
				DistanceField: "miles",
				CurrencyField: "cur",
			},
		},
	}
}

func TestConfigurableAdapter_TranslatesFieldsBothWays(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
		w.Write([]byte(`{"cost": 777, "miles": 6590, "cur": "USD"}`))
	}))
	defer srv.Close()

	adapter := newConfigurableAdapter(t)
	resp := adapter.Calculate(context.Background(), stdRequest(), customCompany(srv.URL))

	if !resp.Success {
		t.Fatalf("expected success, got error %q", resp.Error)
	}
	if resp.TotalPrice != 777 {
		t.Errorf("expected price 777, got %f", resp.TotalPrice)
	}
	if resp.DistanceMiles != 6590 {
		t.Errorf("expected distance 6590, got %f", resp.DistanceMiles)
	}

	// Mapped names used where configured, standard names elsewhere.
	if _, ok := received["purchase_price"]; !ok {
		t.Error("expected buyprice to be sent as purchase_price")
	}
	if _, ok := received["origin_city"]; !ok {
		t.Error("expected usacity to be sent as origin_city")
	}
	if _, ok := received["auction"]; !ok {
		t.Error("expected unmapped field to keep its standard name")
	}
	if _, ok := received["buyprice"]; ok {
		t.Error("did not expect the standard name for a mapped field")
	}
}

func TestConfigurableAdapter_MissingConfigIsFailure(t *testing.T) {
	adapter := newConfigurableAdapter(t)

	cases := []struct {
		name    string
		company *domain.Company
	}{
		{"nil config", &domain.Company{ID: "c1", CalculatorType: domain.CalculatorTypeCustomAPI}},
		{"empty endpoint", &domain.Company{ID: "c2", CalculatorType: domain.CalculatorTypeCustomAPI,
			CustomAPI: &domain.CustomAPIConfig{ResponseMapping: domain.ResponseMapping{PriceField: "cost"}}}},
		{"missing price field", &domain.Company{ID: "c3", CalculatorType: domain.CalculatorTypeCustomAPI,
			CustomAPI: &domain.CustomAPIConfig{EndpointURL: "http://example.com"}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := adapter.Calculate(context.Background(), stdRequest(), tc.company)
			if resp.Success {
				t.Fatal("expected configuration failure")
			}
			if resp.Error == "" {
				t.Error("expected a non-empty error message")
			}
		})
	}
}

func TestConfigurableAdapter_UnreachableHostIsFailure(t *testing.T) {
	adapter := newConfigurableAdapter(t)
	resp := adapter.Calculate(context.Background(), stdRequest(), customCompany("http://127.0.0.1:1"))

	if resp.Success {
		t.Fatal("expected failure for unreachable host")
	}
	if resp.TotalPrice != 0 {
		t.Errorf("expected zero price on failure, got %f", resp.TotalPrice)
	}
	if resp.Error == "" {
		t.Error("expected a non-empty error message")
	}
}

func TestConfigurableAdapter_ResponseMissingPriceFieldIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"unexpected": 123}`))
	}))
	defer srv.Close()

	adapter := newConfigurableAdapter(t)
	resp := adapter.Calculate(context.Background(), stdRequest(), customCompany(srv.URL))

	if resp.Success {
		t.Fatal("expected failure when price field is absent")
	}
}
