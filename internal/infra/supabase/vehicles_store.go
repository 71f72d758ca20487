package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/autoimport/shipquote-go/internal/domain"
	"github.com/autoimport/shipquote-go/internal/infra/resilience"

	"go.opentelemetry.io/otel/attribute"
)

// supabaseVehicle maps the vehicles table columns.
type supabaseVehicle struct {
	ID         string  `json:"id"`
	Make       string  `json:"make"`
	Model      string  `json:"model"`
	Year       int     `json:"year"`
	Category   string  `json:"category"`
	Auction    string  `json:"auction"`
	City       string  `json:"city"`
	BuyPrice   float64 `json:"buy_price"`
	ListingURL string  `json:"listing_url"`
	ImageURL   string  `json:"image_url"`
}

func (r *supabaseVehicle) toDomain() domain.Vehicle {
	return domain.Vehicle{
		ID:         r.ID,
		Make:       r.Make,
		Model:      r.Model,
		Year:       r.Year,
		Category:   r.Category,
		Auction:    r.Auction,
		City:       r.City,
		BuyPrice:   r.BuyPrice,
		ListingURL: r.ListingURL,
		ImageURL:   r.ImageURL,
	}
}

// GetVehicle fetches one catalog vehicle by id.
func (c *Client) GetVehicle(ctx context.Context, vehicleID string) (*domain.Vehicle, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetVehicle")
	defer span.End()
	span.SetAttributes(attribute.String("vehicle.id", vehicleID))

	var vehicle *domain.Vehicle

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("vehicles?id=eq.%s&limit=1", vehicleID)
			body, err := c.doRequest(ctx, http.MethodGet, path, nil)
			if err != nil {
				return err
			}

			if body == nil || string(body) == "[]" {
				return &domain.ErrNotFound{Resource: "vehicle", ID: vehicleID}
			}

			var rows []supabaseVehicle
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode vehicle: %w", err)
			}
			if len(rows) == 0 {
				return &domain.ErrNotFound{Resource: "vehicle", ID: vehicleID}
			}

			dv := rows[0].toDomain()
			vehicle = &dv
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/vehicles", Err: err}
	}

	return vehicle, nil
}

// SearchVehicles queries the catalog with PostgREST filters.
func (c *Client) SearchVehicles(ctx context.Context, filters domain.VehicleFilters, limit, offset int) ([]domain.Vehicle, error) {
	ctx, span := tracer.Start(ctx, "Supabase.SearchVehicles")
	defer span.End()

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	params := []string{
		"order=year.desc",
		fmt.Sprintf("limit=%d", limit),
		fmt.Sprintf("offset=%d", offset),
	}
	if filters.Make != "" {
		params = append(params, "make=ilike."+url.QueryEscape(filters.Make))
	}
	if filters.Model != "" {
		params = append(params, "model=ilike."+url.QueryEscape("*"+filters.Model+"*"))
	}
	if filters.Category != "" {
		params = append(params, "category=eq."+url.QueryEscape(filters.Category))
	}
	if filters.YearFrom > 0 {
		params = append(params, fmt.Sprintf("year=gte.%d", filters.YearFrom))
	}
	if filters.YearTo > 0 {
		params = append(params, fmt.Sprintf("year=lte.%d", filters.YearTo))
	}

	var vehicles []domain.Vehicle

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := "vehicles?" + strings.Join(params, "&")
			body, err := c.doRequest(ctx, http.MethodGet, path, nil)
			if err != nil {
				return err
			}

			if body == nil || string(body) == "[]" {
				vehicles = []domain.Vehicle{}
				return nil
			}

			var rows []supabaseVehicle
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode vehicles: %w", err)
			}

			vehicles = make([]domain.Vehicle, 0, len(rows))
			for i := range rows {
				vehicles = append(vehicles, rows[i].toDomain())
			}
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/vehicles", Err: err}
	}

	return vehicles, nil
}
