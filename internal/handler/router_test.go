package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/autoimport/shipquote-go/internal/calculator"
	"github.com/autoimport/shipquote-go/internal/domain"
	"github.com/autoimport/shipquote-go/internal/handler"
	"github.com/autoimport/shipquote-go/internal/infra/cache"
	"github.com/autoimport/shipquote-go/internal/infra/observability"
	"github.com/autoimport/shipquote-go/internal/infra/resilience"
	"github.com/autoimport/shipquote-go/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const testJWTSecret = "test-secret"

type stubCompanyStore struct {
	companies []domain.Company
}

func (s *stubCompanyStore) ListActiveCompanies(_ context.Context) ([]domain.Company, error) {
	return s.companies, nil
}

func (s *stubCompanyStore) GetCompany(_ context.Context, id string) (*domain.Company, error) {
	for i := range s.companies {
		if s.companies[i].ID == id {
			return &s.companies[i], nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "company", ID: id}
}

type stubVehicleStore struct{}

func (stubVehicleStore) GetVehicle(_ context.Context, id string) (*domain.Vehicle, error) {
	return nil, &domain.ErrNotFound{Resource: "vehicle", ID: id}
}

func (stubVehicleStore) SearchVehicles(_ context.Context, _ domain.VehicleFilters, _, _ int) ([]domain.Vehicle, error) {
	return nil, nil
}

type stubQuoteStore struct {
	records []domain.QuoteRecord
}

func (s *stubQuoteStore) CreateQuote(_ context.Context, record *domain.QuoteRecord) error {
	s.records = append(s.records, *record)
	return nil
}

func (s *stubQuoteStore) ListQuotes(_ context.Context, _ string, _, _ int) ([]domain.QuoteRecord, error) {
	return s.records, nil
}

// newTestRouter wires the router with a formula-only company so no quote
// path needs a live upstream calculator.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	companies := &stubCompanyStore{companies: []domain.Company{{
		ID: "c1", Name: "Flat Fee Logistics", Active: true,
		CalculatorType: domain.CalculatorTypeFormula,
		Fees: domain.CompanyFees{
			BasePrice: 100, CustomsFee: 50, ServiceFee: 20, BrokerFee: 30, PricePerMile: 0.1,
		},
	}}}

	metrics := observability.NewMetrics()
	factory := calculator.NewFactory(
		&http.Client{Timeout: 2 * time.Second},
		"http://127.0.0.1:1",
		cache.NewNull[string](),
		resilience.NewCircuitBreaker("test-calculator"),
		resilience.Config{MaxRetries: 0, InitialBackoff: time.Millisecond},
		metrics,
		zap.NewNop(),
	)
	svc := service.NewShippingQuoteService(
		companies,
		stubVehicleStore{},
		&stubQuoteStore{},
		calculator.NewRequestBuilder("", zap.NewNop()),
		factory,
		resilience.NewBulkhead(4),
		metrics,
		zap.NewNop(),
		"Los Angeles",
	)
	return handler.NewRouter(svc, metrics, zap.NewNop(), testJWTSecret)
}

func adminToken(t *testing.T, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "ops@example.com",
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestOperationalEndpoints(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/healthz", "/readyz", "/ping", "/metrics", "/v1/metrics/quotes"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestCalculateQuotes_HappyPath(t *testing.T) {
	router := newTestRouter(t)

	body := `{"city": "Houston", "buy_price": 5000}`
	req := httptest.NewRequest(http.MethodPost, "/v1/quotes/calculate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Quotes          []domain.Quote `json:"quotes"`
		DistanceMiles   float64        `json:"distance_miles"`
		DisplayCurrency string         `json:"display_currency"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Quotes) != 1 {
		t.Fatalf("expected 1 quote, got %d", len(resp.Quotes))
	}
	if resp.DistanceMiles <= 0 {
		t.Errorf("expected a resolved distance, got %f", resp.DistanceMiles)
	}
	if resp.DisplayCurrency != "USD" {
		t.Errorf("expected default display currency USD, got %q", resp.DisplayCurrency)
	}
}

func TestCalculateQuotes_EchoesDisplayCurrency(t *testing.T) {
	router := newTestRouter(t)

	body := `{"city": "Houston", "buy_price": 5000}`
	req := httptest.NewRequest(http.MethodPost, "/v1/quotes/calculate?currency=EUR", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		DisplayCurrency string `json:"display_currency"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.DisplayCurrency != "EUR" {
		t.Errorf("expected display currency EUR, got %q", resp.DisplayCurrency)
	}
}

func TestCalculateQuotes_Validation(t *testing.T) {
	router := newTestRouter(t)

	cases := []struct {
		name string
		body string
	}{
		{"missing city", `{"buy_price": 5000}`},
		{"negative buy price", `{"city": "Houston", "buy_price": -1}`},
		{"malformed json", `{`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/quotes/calculate", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestListCompanies(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/companies", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestVehicleQuotes_UnknownVehicleIs404(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/vehicles/missing/quotes", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestAdminRoutes_RequireToken(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/quotes", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}
}

func TestAdminRoutes_RejectNonAdminRole(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/quotes", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t, "viewer"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for non-admin role, got %d", rec.Code)
	}
}

func TestAdminRoutes_RejectBadSignature(t *testing.T) {
	router := newTestRouter(t)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": "admin"})
	signed, err := token.SignedString([]byte("wrong-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/quotes", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad signature, got %d", rec.Code)
	}
}

func TestAdminCreateQuote(t *testing.T) {
	router := newTestRouter(t)

	body := `{"company_id": "c1", "vehicle_id": "v1", "total_price": 1450}`
	req := httptest.NewRequest(http.MethodPost, "/v1/admin/quotes", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+adminToken(t, "admin"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var record domain.QuoteRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &record); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if record.ID == "" {
		t.Error("expected a generated quote id")
	}
	if record.Status != "created" {
		t.Errorf("expected status 'created', got %q", record.Status)
	}
}

func TestAdminCreateQuote_UnknownCompanyIs404(t *testing.T) {
	router := newTestRouter(t)

	body := `{"company_id": "ghost", "total_price": 100}`
	req := httptest.NewRequest(http.MethodPost, "/v1/admin/quotes", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+adminToken(t, "admin"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown company, got %d", rec.Code)
	}
}
