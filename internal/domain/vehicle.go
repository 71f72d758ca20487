package domain

// Vehicle is a catalog listing imported from an auction marketplace.
type Vehicle struct {
	ID         string  `json:"id"`
	Make       string  `json:"make"`
	Model      string  `json:"model"`
	Year       int     `json:"year"`
	Category   string  `json:"category"`
	Auction    string  `json:"auction"`
	City       string  `json:"city"`
	BuyPrice   float64 `json:"buy_price"`
	ListingURL string  `json:"listing_url,omitempty"`
	ImageURL   string  `json:"image_url,omitempty"`
}

// VehicleFilters narrows a catalog search. Zero values mean "any".
type VehicleFilters struct {
	Make     string `json:"make,omitempty"`
	Model    string `json:"model,omitempty"`
	YearFrom int    `json:"year_from,omitempty"`
	YearTo   int    `json:"year_to,omitempty"`
	Category string `json:"category,omitempty"`
}
