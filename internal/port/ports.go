// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/autoimport/shipquote-go/internal/domain"
)

// CompanyStore reads logistics-company records. The quote core never
// writes companies; they are owned by the company management subsystem.
type CompanyStore interface {
	ListActiveCompanies(ctx context.Context) ([]domain.Company, error)
	GetCompany(ctx context.Context, companyID string) (*domain.Company, error)
}

// VehicleStore reads the vehicle catalog.
type VehicleStore interface {
	GetVehicle(ctx context.Context, vehicleID string) (*domain.Vehicle, error)
	SearchVehicles(ctx context.Context, filters domain.VehicleFilters, limit, offset int) ([]domain.Vehicle, error)
}

// QuoteStore persists quotes created explicitly through the admin routes.
// Live quote calculation never touches it.
type QuoteStore interface {
	CreateQuote(ctx context.Context, record *domain.QuoteRecord) error
	ListQuotes(ctx context.Context, companyID string, page, pageSize int) ([]domain.QuoteRecord, error)
}

// Cache provides generic caching with TTL. A missing backend is modeled
// by a null implementation that always misses, never by an error.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
