package domain

// CalculatorType selects which pricing strategy applies to a company.
// It is a closed set: the adapter factory switches exhaustively over it
// and anything unrecognized is normalized to CalculatorTypeDefault.
type CalculatorType string

const (
	CalculatorTypeDefault   CalculatorType = "default"
	CalculatorTypeCustomAPI CalculatorType = "custom_api"
	CalculatorTypeFormula   CalculatorType = "formula"
)

// ParseCalculatorType maps a stored tag to a CalculatorType.
// Empty or unknown tags fall back to the default calculator, so
// selection always succeeds.
func ParseCalculatorType(s string) CalculatorType {
	switch CalculatorType(s) {
	case CalculatorTypeCustomAPI:
		return CalculatorTypeCustomAPI
	case CalculatorTypeFormula:
		return CalculatorTypeFormula
	default:
		return CalculatorTypeDefault
	}
}

// CustomAPIConfig holds the per-company calculator integration settings
// used when CalculatorType is custom_api.
//
// RequestMapping translates standard request field names (buyprice,
// auction, vehicletype, usacity, destinationport, vehiclecategory) into
// the field names the target API expects. ResponseMapping tells the
// adapter where to find the price/distance/currency in the reply.
type CustomAPIConfig struct {
	EndpointURL     string            `json:"endpoint_url"`
	RequestMapping  map[string]string `json:"request_mapping"`
	ResponseMapping ResponseMapping   `json:"response_mapping"`
}

// ResponseMapping names the reply fields of a custom calculator API.
type ResponseMapping struct {
	PriceField    string `json:"price_field"`
	DistanceField string `json:"distance_field,omitempty"`
	CurrencyField string `json:"currency_field,omitempty"`
}

// Valid reports whether the config is complete enough to issue a call.
func (c *CustomAPIConfig) Valid() bool {
	return c != nil && c.EndpointURL != "" && c.ResponseMapping.PriceField != ""
}

// CompanyFees are the stored pricing fields used by the formula calculator.
type CompanyFees struct {
	BasePrice    float64  `json:"base_price"`
	PricePerMile float64  `json:"price_per_mile"`
	CustomsFee   float64  `json:"customs_fee"`
	ServiceFee   float64  `json:"service_fee"`
	BrokerFee    float64  `json:"broker_fee"`
	Insurance    *float64 `json:"insurance,omitempty"`
}

// Company is a logistics provider record. It is owned and persisted by
// the company management subsystem; the quote core only reads it.
type Company struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Active         bool             `json:"active"`
	CalculatorType CalculatorType   `json:"calculator_type"`
	Fees           CompanyFees      `json:"fees"`
	CustomAPI      *CustomAPIConfig `json:"custom_api,omitempty"`

	// Delivery estimate shown alongside quotes, when the company provides one.
	DeliveryTimeDays *int `json:"delivery_time_days,omitempty"`

	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"review_count"`
}
