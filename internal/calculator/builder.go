package calculator

import (
	"strings"

	"github.com/autoimport/shipquote-go/internal/domain"

	"go.uber.org/zap"
)

// Request vocabulary defaults applied when the caller omits a field.
const (
	DefaultAuction         = "Copart"
	DefaultVehicleType     = "standard"
	DefaultVehicleCategory = "Sedan"
)

// BuildResult is the outcome of request normalization. An unmatched
// origin city is a first-class soft failure, not an error: callers use
// UnmatchedCity to drive the best-effort fallback estimate and the UI
// label, so the request never dies on an unmapped city.
type BuildResult struct {
	Success       bool
	Request       *domain.StandardCalculatorRequest
	Err           string
	UnmatchedCity string
}

// RequestBuilder resolves loose, human-entered calculator input into the
// controlled vocabulary the calculator APIs expect.
type RequestBuilder struct {
	destinationPort string
	logger          *zap.Logger

	// normalized city/alias -> yard index, built once at construction
	index map[string]int
}

// NewRequestBuilder creates a builder targeting the given destination
// port (POTI when empty).
func NewRequestBuilder(destinationPort string, logger *zap.Logger) *RequestBuilder {
	if destinationPort == "" {
		destinationPort = PortPoti
	}

	index := make(map[string]int, len(auctionYards)*2)
	for i, yard := range auctionYards {
		index[normalizeCity(yard.City)] = i
		for _, alias := range yard.Aliases {
			index[normalizeCity(alias)] = i
		}
	}

	return &RequestBuilder{
		destinationPort: strings.ToUpper(destinationPort),
		logger:          logger,
		index:           index,
	}
}

// Build normalizes the input into a StandardCalculatorRequest. The city
// must match a known auction yard; everything else gets a default.
func (b *RequestBuilder) Build(input domain.CalculatorInput) BuildResult {
	yard, ok := b.matchYard(input.City)
	if !ok {
		b.logger.Info("origin city did not match any auction yard",
			zap.String("city", input.City),
		)
		return BuildResult{
			Success:       false,
			Err:           "origin city not recognized",
			UnmatchedCity: input.City,
		}
	}

	port := b.destinationPort
	if input.DestinationPort != "" {
		port = strings.ToUpper(strings.TrimSpace(input.DestinationPort))
	}

	req := &domain.StandardCalculatorRequest{
		BuyPrice:        input.BuyPrice,
		Auction:         valueOr(input.Auction, DefaultAuction),
		VehicleType:     valueOr(input.VehicleType, DefaultVehicleType),
		USACity:         yard.City,
		DestinationPort: port,
		VehicleCategory: valueOr(input.VehicleCategory, DefaultVehicleCategory),
		CopartURL:       input.ListingURL,
		DistanceMiles:   yard.distanceTo(port),
	}
	return BuildResult{Success: true, Request: req}
}

// matchYard resolves a free-text city string against the known auction
// yards. Only exact normalized matches count; a wrong city silently
// standing in for the right one would corrupt every downstream price.
func (b *RequestBuilder) matchYard(city string) (*auctionYard, bool) {
	normalized := normalizeCity(city)
	if normalized == "" {
		return nil, false
	}
	i, ok := b.index[normalized]
	if !ok {
		return nil, false
	}
	return &auctionYards[i], true
}

// normalizeCity lowercases, strips a trailing ", ST" state suffix and
// punctuation, and collapses whitespace.
func normalizeCity(city string) string {
	s := strings.TrimSpace(city)

	// "Dallas, TX" -> "Dallas"; also drops anything after a comma.
	if i := strings.Index(s, ","); i >= 0 {
		s = s[:i]
	}

	s = strings.ToLower(s)
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == ' ' || r == '-' || r == '.':
			sb.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

func valueOr(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return strings.TrimSpace(v)
}
