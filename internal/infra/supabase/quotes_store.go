package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/autoimport/shipquote-go/internal/domain"
	"github.com/autoimport/shipquote-go/internal/infra/resilience"

	"go.opentelemetry.io/otel/attribute"
)

// supabaseQuote maps the quotes table columns (admin-persisted quotes).
type supabaseQuote struct {
	ID          string  `json:"id"`
	CompanyID   string  `json:"company_id"`
	VehicleID   string  `json:"vehicle_id,omitempty"`
	UserID      string  `json:"user_id,omitempty"`
	TotalPrice  float64 `json:"total_price"`
	Currency    string  `json:"currency"`
	Status      string  `json:"status"`
	Description string  `json:"description,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

// CreateQuote inserts an admin-created quote record.
func (c *Client) CreateQuote(ctx context.Context, record *domain.QuoteRecord) error {
	ctx, span := tracer.Start(ctx, "Supabase.CreateQuote")
	defer span.End()
	span.SetAttributes(attribute.String("quote.id", record.ID))

	row := supabaseQuote{
		ID:          record.ID,
		CompanyID:   record.CompanyID,
		VehicleID:   record.VehicleID,
		UserID:      record.UserID,
		TotalPrice:  record.TotalPrice,
		Currency:    record.Currency,
		Status:      record.Status,
		Description: record.Description,
		CreatedAt:   record.CreatedAt.Format(time.RFC3339),
	}

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			_, err := c.doRequest(ctx, http.MethodPost, "quotes", row)
			return err
		})
	})

	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/quotes", Err: err}
	}
	return nil
}

// ListQuotes fetches persisted quotes, optionally filtered by company.
func (c *Client) ListQuotes(ctx context.Context, companyID string, page, pageSize int) ([]domain.QuoteRecord, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListQuotes")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	path := fmt.Sprintf("quotes?order=created_at.desc&limit=%d&offset=%d", pageSize, (page-1)*pageSize)
	if companyID != "" {
		path = fmt.Sprintf("quotes?company_id=eq.%s&order=created_at.desc&limit=%d&offset=%d", companyID, pageSize, (page-1)*pageSize)
	}

	var records []domain.QuoteRecord

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := c.doRequest(ctx, http.MethodGet, path, nil)
			if err != nil {
				return err
			}

			if body == nil || string(body) == "[]" {
				records = []domain.QuoteRecord{}
				return nil
			}

			var rows []supabaseQuote
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode quotes: %w", err)
			}

			records = make([]domain.QuoteRecord, 0, len(rows))
			for _, r := range rows {
				t, _ := time.Parse(time.RFC3339, r.CreatedAt)
				records = append(records, domain.QuoteRecord{
					ID:          r.ID,
					CompanyID:   r.CompanyID,
					VehicleID:   r.VehicleID,
					UserID:      r.UserID,
					TotalPrice:  r.TotalPrice,
					Currency:    r.Currency,
					Status:      r.Status,
					Description: r.Description,
					CreatedAt:   t,
				})
			}
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/quotes", Err: err}
	}

	return records, nil
}
