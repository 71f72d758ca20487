package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/autoimport/shipquote-go/internal/domain"
	"github.com/autoimport/shipquote-go/internal/infra/resilience"

	"go.opentelemetry.io/otel/attribute"
)

// supabaseCompany maps the companies table columns to our domain.
// custom_api is a jsonb column holding the per-company calculator config.
type supabaseCompany struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Active           bool            `json:"active"`
	CalculatorType   string          `json:"calculator_type"`
	BasePrice        float64         `json:"base_price"`
	PricePerMile     float64         `json:"price_per_mile"`
	CustomsFee       float64         `json:"customs_fee"`
	ServiceFee       float64         `json:"service_fee"`
	BrokerFee        float64         `json:"broker_fee"`
	Insurance        *float64        `json:"insurance"`
	CustomAPI        json.RawMessage `json:"custom_api"`
	DeliveryTimeDays *int            `json:"delivery_time_days"`
	Rating           float64         `json:"rating"`
	ReviewCount      int             `json:"review_count"`
}

func (r *supabaseCompany) toDomain() domain.Company {
	c := domain.Company{
		ID:             r.ID,
		Name:           r.Name,
		Active:         r.Active,
		CalculatorType: domain.ParseCalculatorType(r.CalculatorType),
		Fees: domain.CompanyFees{
			BasePrice:    r.BasePrice,
			PricePerMile: r.PricePerMile,
			CustomsFee:   r.CustomsFee,
			ServiceFee:   r.ServiceFee,
			BrokerFee:    r.BrokerFee,
			Insurance:    r.Insurance,
		},
		DeliveryTimeDays: r.DeliveryTimeDays,
		Rating:           r.Rating,
		ReviewCount:      r.ReviewCount,
	}

	if len(r.CustomAPI) > 0 && string(r.CustomAPI) != "null" {
		var cfg domain.CustomAPIConfig
		// A malformed config column leaves CustomAPI nil; the adapter
		// reports it as a configuration failure at calculation time.
		if err := json.Unmarshal(r.CustomAPI, &cfg); err == nil {
			c.CustomAPI = &cfg
		}
	}
	return c
}

// ListActiveCompanies fetches all active logistics companies.
func (c *Client) ListActiveCompanies(ctx context.Context) ([]domain.Company, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListActiveCompanies")
	defer span.End()

	var companies []domain.Company

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := c.doRequest(ctx, http.MethodGet, "companies?active=is.true&order=name.asc", nil)
			if err != nil {
				return err
			}

			if body == nil || string(body) == "[]" {
				companies = []domain.Company{}
				return nil
			}

			var rows []supabaseCompany
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode companies: %w", err)
			}

			companies = make([]domain.Company, 0, len(rows))
			for i := range rows {
				companies = append(companies, rows[i].toDomain())
			}
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/companies", Err: err}
	}

	return companies, nil
}

// GetCompany fetches one company by id.
func (c *Client) GetCompany(ctx context.Context, companyID string) (*domain.Company, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetCompany")
	defer span.End()
	span.SetAttributes(attribute.String("company.id", companyID))

	var company *domain.Company

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("companies?id=eq.%s&limit=1", companyID)
			body, err := c.doRequest(ctx, http.MethodGet, path, nil)
			if err != nil {
				return err
			}

			if body == nil || string(body) == "[]" {
				return &domain.ErrNotFound{Resource: "company", ID: companyID}
			}

			var rows []supabaseCompany
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode company: %w", err)
			}
			if len(rows) == 0 {
				return &domain.ErrNotFound{Resource: "company", ID: companyID}
			}

			dc := rows[0].toDomain()
			company = &dc
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/companies", Err: err}
	}

	return company, nil
}
