package domain

import "time"

// StandardCalculatorRequest is the normalized vocabulary every calculator
// adapter understands. Once built, every field holds a value from the
// controlled vocabulary the calculator APIs expect; free-text origin input
// never reaches an adapter unmatched.
type StandardCalculatorRequest struct {
	BuyPrice        float64 `json:"buyprice"`
	Auction         string  `json:"auction"`
	VehicleType     string  `json:"vehicletype"`
	USACity         string  `json:"usacity"`
	DestinationPort string  `json:"destinationport"`
	VehicleCategory string  `json:"vehiclecategory"`
	CopartURL       string  `json:"coparturl,omitempty"`

	// DistanceMiles is resolved at build time from the auction-yard table
	// (origin to destination port). Local pricing strategies read it instead
	// of inventing a distance. Not part of the wire vocabulary.
	DistanceMiles float64 `json:"-"`
}

// StandardCalculatorResponse is the uniform result every adapter returns.
// Expected failures (network errors, non-2xx, bad payloads, bad config)
// are reported here as data, never as a Go error.
type StandardCalculatorResponse struct {
	Success       bool           `json:"success"`
	TotalPrice    float64        `json:"totalPrice"`
	DistanceMiles float64        `json:"distanceMiles"`
	Currency      string         `json:"currency"`
	Breakdown     map[string]any `json:"breakdown,omitempty"`
	Error         string         `json:"error,omitempty"`
}

// Quote is one company's offer for a request. Constructed fresh on every
// aggregation; persisted only through the explicit admin endpoint.
type Quote struct {
	CompanyID        string         `json:"company_id"`
	CompanyName      string         `json:"company_name"`
	TotalPrice       float64        `json:"total_price"`
	Currency         string         `json:"currency"`
	DeliveryTimeDays *int           `json:"delivery_time_days,omitempty"`
	CalculatorType   CalculatorType `json:"calculator_type"`
}

// QuoteSet is the aggregation result for a single request: one quote per
// company whose calculator succeeded, sorted by price ascending.
type QuoteSet struct {
	DistanceMiles float64 `json:"distance_miles"`
	Quotes        []Quote `json:"quotes"`

	// Estimate is set when the origin city could not be matched and the
	// prices were produced by the best-effort fallback path. UnmatchedCity
	// echoes the original input so the UI can label the result.
	Estimate      bool   `json:"estimate,omitempty"`
	UnmatchedCity string `json:"unmatched_city,omitempty"`
}

// VehicleQuotes pairs a vehicle with its aggregated quotes, used by the
// search and compare endpoints.
type VehicleQuotes struct {
	Vehicle *Vehicle `json:"vehicle"`
	QuoteSet
}

// QuoteRecord is a persisted quote created through the admin routes,
// decoupled from the live calculation path.
type QuoteRecord struct {
	ID          string    `json:"id"`
	CompanyID   string    `json:"company_id"`
	VehicleID   string    `json:"vehicle_id,omitempty"`
	UserID      string    `json:"user_id,omitempty"`
	TotalPrice  float64   `json:"total_price"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateQuoteRequest is the admin payload for persisting a quote.
type CreateQuoteRequest struct {
	CompanyID   string  `json:"company_id"`
	VehicleID   string  `json:"vehicle_id,omitempty"`
	UserID      string  `json:"user_id,omitempty"`
	TotalPrice  float64 `json:"total_price"`
	Currency    string  `json:"currency,omitempty"`
	Description string  `json:"description,omitempty"`
}

// CalculatorInput is the loose, human-entered form of a quote request as
// it arrives from routes: a free-text US city plus optional overrides.
// The request builder resolves it into a StandardCalculatorRequest.
type CalculatorInput struct {
	City            string  `json:"city"`
	BuyPrice        float64 `json:"buy_price"`
	Auction         string  `json:"auction,omitempty"`
	VehicleType     string  `json:"vehicle_type,omitempty"`
	VehicleCategory string  `json:"vehicle_category,omitempty"`
	DestinationPort string  `json:"destination_port,omitempty"`
	ListingURL      string  `json:"listing_url,omitempty"`
}
