package service_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/autoimport/shipquote-go/internal/calculator"
	"github.com/autoimport/shipquote-go/internal/domain"
	"github.com/autoimport/shipquote-go/internal/infra/cache"
	"github.com/autoimport/shipquote-go/internal/infra/observability"
	"github.com/autoimport/shipquote-go/internal/infra/resilience"
	"github.com/autoimport/shipquote-go/internal/service"

	"go.uber.org/zap"
)

// --- Mocks ---

type mockCompanyStore struct {
	companies []domain.Company
	err       error
}

func (m *mockCompanyStore) ListActiveCompanies(_ context.Context) ([]domain.Company, error) {
	return m.companies, m.err
}

func (m *mockCompanyStore) GetCompany(_ context.Context, id string) (*domain.Company, error) {
	for i := range m.companies {
		if m.companies[i].ID == id {
			return &m.companies[i], nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "company", ID: id}
}

type mockVehicleStore struct {
	vehicles map[string]domain.Vehicle
	err      error
}

func (m *mockVehicleStore) GetVehicle(_ context.Context, id string) (*domain.Vehicle, error) {
	if m.err != nil {
		return nil, m.err
	}
	if v, ok := m.vehicles[id]; ok {
		return &v, nil
	}
	return nil, &domain.ErrNotFound{Resource: "vehicle", ID: id}
}

func (m *mockVehicleStore) SearchVehicles(_ context.Context, _ domain.VehicleFilters, limit, offset int) ([]domain.Vehicle, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.Vehicle, 0, len(m.vehicles))
	for _, v := range m.vehicles {
		out = append(out, v)
	}
	return out, nil
}

type mockQuoteStore struct {
	created []domain.QuoteRecord
	err     error
}

func (m *mockQuoteStore) CreateQuote(_ context.Context, record *domain.QuoteRecord) error {
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, *record)
	return nil
}

func (m *mockQuoteStore) ListQuotes(_ context.Context, _ string, _, _ int) ([]domain.QuoteRecord, error) {
	return m.created, m.err
}

// --- Helpers ---

func defaultCompany(id string) domain.Company {
	return domain.Company{ID: id, Name: "Default " + id, Active: true, CalculatorType: domain.CalculatorTypeDefault}
}

func formulaCompany(id string) domain.Company {
	return domain.Company{
		ID: id, Name: "Formula " + id, Active: true,
		CalculatorType: domain.CalculatorTypeFormula,
		Fees: domain.CompanyFees{
			BasePrice: 100, CustomsFee: 50, ServiceFee: 20, BrokerFee: 30, PricePerMile: 0.1,
		},
	}
}

func brokenCustomCompany(id string) domain.Company {
	return domain.Company{
		ID: id, Name: "Custom " + id, Active: true,
		CalculatorType: domain.CalculatorTypeCustomAPI,
		CustomAPI: &domain.CustomAPIConfig{
			EndpointURL:     "http://127.0.0.1:1", // nothing listens here
			ResponseMapping: domain.ResponseMapping{PriceField: "cost"},
		},
	}
}

func newQuoteService(t *testing.T, apiURL string, companies *mockCompanyStore, vehicles *mockVehicleStore, quotes *mockQuoteStore) *service.ShippingQuoteService {
	t.Helper()

	if vehicles == nil {
		vehicles = &mockVehicleStore{vehicles: map[string]domain.Vehicle{}}
	}
	if quotes == nil {
		quotes = &mockQuoteStore{}
	}

	factory := calculator.NewFactory(
		&http.Client{Timeout: 2 * time.Second},
		apiURL,
		cache.NewNull[string](),
		resilience.NewCircuitBreaker("test-calculator"),
		resilience.Config{MaxRetries: 0, InitialBackoff: time.Millisecond},
		observability.NewMetrics(),
		zap.NewNop(),
	)
	builder := calculator.NewRequestBuilder("", zap.NewNop())

	return service.NewShippingQuoteService(
		companies,
		vehicles,
		quotes,
		builder,
		factory,
		resilience.NewBulkhead(8),
		observability.NewMetrics(),
		zap.NewNop(),
		"Los Angeles",
	)
}

func calculatorServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// --- Tests ---

func TestCalculateQuotes_MixedAdapters(t *testing.T) {
	// End-to-end: one default (reachable), one formula (local), one
	// custom_api pointing at an unreachable host.
	srv := calculatorServer(t, `{"transportation_total": 1900, "distance_miles": 6590}`)

	companies := &mockCompanyStore{companies: []domain.Company{
		defaultCompany("c-default"),
		brokenCustomCompany("c-custom"),
		formulaCompany("c-formula"),
	}}
	svc := newQuoteService(t, srv.URL, companies, nil, nil)

	set, err := svc.CalculateQuotes(context.Background(), domain.CalculatorInput{City: "Houston", BuyPrice: 5000})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(set.Quotes) != 2 {
		t.Fatalf("expected 2 quotes (default + formula), got %d", len(set.Quotes))
	}
	for _, q := range set.Quotes {
		if q.CompanyID == "c-custom" {
			t.Error("expected the broken custom_api company to be omitted")
		}
	}
	if set.DistanceMiles != 6590 {
		t.Errorf("expected aggregate distance 6590, got %f", set.DistanceMiles)
	}
	if set.Estimate {
		t.Error("did not expect the estimate flag for a matched city")
	}

	// Sorted by price ascending: formula (100+50+20+30+0.1*6590=859) < default (1900).
	if set.Quotes[0].CompanyID != "c-formula" {
		t.Errorf("expected formula quote first, got %s", set.Quotes[0].CompanyID)
	}
	if set.Quotes[0].TotalPrice != 859 {
		t.Errorf("expected formula total 859, got %f", set.Quotes[0].TotalPrice)
	}
}

func TestCalculateQuotes_AllCompaniesFailing(t *testing.T) {
	companies := &mockCompanyStore{companies: []domain.Company{
		brokenCustomCompany("c1"),
		brokenCustomCompany("c2"),
		brokenCustomCompany("c3"),
	}}
	svc := newQuoteService(t, "http://127.0.0.1:1", companies, nil, nil)

	set, err := svc.CalculateQuotes(context.Background(), domain.CalculatorInput{City: "Houston", BuyPrice: 5000})
	if err != nil {
		t.Fatalf("expected aggregation to survive total failure, got %v", err)
	}
	if len(set.Quotes) != 0 {
		t.Errorf("expected 0 quotes, got %d", len(set.Quotes))
	}
}

func TestCalculateQuotes_PartialFailureCount(t *testing.T) {
	srv := calculatorServer(t, `{"total": 1000, "distance_miles": 6240}`)

	companies := &mockCompanyStore{companies: []domain.Company{
		defaultCompany("ok-1"),
		defaultCompany("ok-2"),
		brokenCustomCompany("bad-1"),
		formulaCompany("ok-3"),
		brokenCustomCompany("bad-2"),
	}}
	svc := newQuoteService(t, srv.URL, companies, nil, nil)

	set, err := svc.CalculateQuotes(context.Background(), domain.CalculatorInput{City: "Chicago", BuyPrice: 3000})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(set.Quotes) != 3 {
		t.Errorf("expected N-K = 3 quotes, got %d", len(set.Quotes))
	}
}

func TestCalculateQuotes_NoCompanies(t *testing.T) {
	svc := newQuoteService(t, "http://127.0.0.1:1", &mockCompanyStore{}, nil, nil)

	_, err := svc.CalculateQuotes(context.Background(), domain.CalculatorInput{City: "Houston", BuyPrice: 5000})
	var noCompanies *domain.ErrNoCompanies
	if !errors.As(err, &noCompanies) {
		t.Fatalf("expected ErrNoCompanies, got %v", err)
	}
}

func TestCalculateQuotes_UnmatchedCityFallsBackToEstimate(t *testing.T) {
	srv := calculatorServer(t, `{"transportation_total": 2100, "distance_miles": 7310}`)

	companies := &mockCompanyStore{companies: []domain.Company{defaultCompany("c1")}}
	svc := newQuoteService(t, srv.URL, companies, nil, nil)

	set, err := svc.CalculateQuotes(context.Background(), domain.CalculatorInput{City: "Middle Of Nowhere", BuyPrice: 4000})
	if err != nil {
		t.Fatalf("expected best-effort fallback, got %v", err)
	}
	if !set.Estimate {
		t.Error("expected the estimate flag on fallback results")
	}
	if set.UnmatchedCity != "Middle Of Nowhere" {
		t.Errorf("expected unmatched city echoed, got %q", set.UnmatchedCity)
	}
	if len(set.Quotes) != 1 {
		t.Fatalf("expected a baseline quote, got %d", len(set.Quotes))
	}
}

func TestCalculateQuotesForVehicle(t *testing.T) {
	srv := calculatorServer(t, `{"total": 1500, "distance_miles": 6050}`)

	vehicles := &mockVehicleStore{vehicles: map[string]domain.Vehicle{
		"v1": {ID: "v1", Make: "Toyota", Model: "Camry", Year: 2021, Category: "Sedan", Auction: "Copart", City: "Miami", BuyPrice: 12000},
	}}
	companies := &mockCompanyStore{companies: []domain.Company{defaultCompany("c1"), formulaCompany("c2")}}
	svc := newQuoteService(t, srv.URL, companies, vehicles, nil)

	result, err := svc.CalculateQuotesForVehicle(context.Background(), "v1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Vehicle.ID != "v1" {
		t.Errorf("expected vehicle v1, got %s", result.Vehicle.ID)
	}
	if len(result.Quotes) != 2 {
		t.Errorf("expected 2 quotes, got %d", len(result.Quotes))
	}
}

func TestCalculateQuotesForVehicle_UnknownVehicle(t *testing.T) {
	svc := newQuoteService(t, "http://127.0.0.1:1", &mockCompanyStore{}, &mockVehicleStore{vehicles: map[string]domain.Vehicle{}}, nil)

	_, err := svc.CalculateQuotesForVehicle(context.Background(), "missing")
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCompareVehicles_EmptyIDs(t *testing.T) {
	svc := newQuoteService(t, "http://127.0.0.1:1", &mockCompanyStore{}, nil, nil)

	_, err := svc.CompareVehicles(context.Background(), nil, 3)
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestCompareVehicles_TruncatesToCheapestN(t *testing.T) {
	srv := calculatorServer(t, `{"total": 2000, "distance_miles": 6590}`)

	vehicles := &mockVehicleStore{vehicles: map[string]domain.Vehicle{
		"v1": {ID: "v1", City: "Houston", BuyPrice: 8000, Category: "Sedan"},
	}}
	companies := &mockCompanyStore{companies: []domain.Company{
		defaultCompany("c1"),
		formulaCompany("c2"),
		formulaCompany("c3"),
	}}
	svc := newQuoteService(t, srv.URL, companies, vehicles, nil)

	results, err := svc.CompareVehicles(context.Background(), []string{"v1"}, 2)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 vehicle result, got %d", len(results))
	}
	if len(results[0].Quotes) != 2 {
		t.Errorf("expected quotes truncated to 2, got %d", len(results[0].Quotes))
	}
	// Cheapest first: formula quotes undercut the default API price.
	if results[0].Quotes[0].CalculatorType != domain.CalculatorTypeFormula {
		t.Errorf("expected cheapest quote from formula company, got %s", results[0].Quotes[0].CalculatorType)
	}
}

func TestCreateQuote_PersistsRecord(t *testing.T) {
	quotes := &mockQuoteStore{}
	companies := &mockCompanyStore{companies: []domain.Company{defaultCompany("c1")}}
	svc := newQuoteService(t, "http://127.0.0.1:1", companies, nil, quotes)

	record, err := svc.CreateQuote(context.Background(), &domain.CreateQuoteRequest{
		CompanyID:  "c1",
		VehicleID:  "v1",
		TotalPrice: 1450,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if record.ID == "" {
		t.Error("expected a generated quote id")
	}
	if record.Currency != "USD" {
		t.Errorf("expected USD default, got %q", record.Currency)
	}
	if record.Status != "created" {
		t.Errorf("expected status 'created', got %q", record.Status)
	}
	if len(quotes.created) != 1 {
		t.Fatalf("expected 1 persisted record, got %d", len(quotes.created))
	}
}

func TestCreateQuote_Validation(t *testing.T) {
	svc := newQuoteService(t, "http://127.0.0.1:1", &mockCompanyStore{}, nil, nil)

	cases := []struct {
		name string
		req  *domain.CreateQuoteRequest
	}{
		{"missing company", &domain.CreateQuoteRequest{TotalPrice: 100}},
		{"non-positive price", &domain.CreateQuoteRequest{CompanyID: "c1", TotalPrice: 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateQuote(context.Background(), tc.req)
			var validation *domain.ErrValidation
			if !errors.As(err, &validation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestComputeQuotes_DistanceFallsBackToRequest(t *testing.T) {
	// Only a formula company: no upstream distance report, so the
	// aggregate uses the builder-resolved request distance.
	companies := &mockCompanyStore{companies: []domain.Company{formulaCompany("c1")}}
	svc := newQuoteService(t, "http://127.0.0.1:1", companies, nil, nil)

	set, err := svc.CalculateQuotes(context.Background(), domain.CalculatorInput{City: "Houston", BuyPrice: 5000})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if set.DistanceMiles <= 0 {
		t.Errorf("expected builder-resolved distance, got %f", set.DistanceMiles)
	}
}
