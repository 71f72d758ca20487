package domain

// QuoteMetrics is a snapshot of quote-related counters for the
// GET /v1/metrics/quotes endpoint.
type QuoteMetrics struct {
	TotalRequests   int64   `json:"total_requests"`
	ErrorRate       float64 `json:"error_rate"`
	CacheHitRate    float64 `json:"cache_hit_rate"`
	UnmatchedCities int64   `json:"unmatched_cities"`
	QuotesComputed  int64   `json:"quotes_computed"`
	QuotesFailed    int64   `json:"quotes_failed"`
	Period          string  `json:"period"`
}
