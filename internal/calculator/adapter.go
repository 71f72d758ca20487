// Package calculator implements the shipping-cost calculation strategies:
// the shared default calculator API, per-company custom HTTP calculators,
// and the local fee formula. All strategies speak the same normalized
// request/response vocabulary so the aggregation layer can treat them
// uniformly.
package calculator

import (
	"context"
	"fmt"
	"strconv"

	"github.com/autoimport/shipquote-go/internal/domain"
)

// Adapter is the shared calculator contract.
//
// Calculate never returns a Go error: network failures, non-2xx replies,
// malformed payloads and bad configuration all come back as a response
// with Success=false. The aggregation layer runs N adapters concurrently
// and needs individual failures to be data, so one company's broken
// integration can never abort the comparison for the rest.
type Adapter interface {
	Calculate(ctx context.Context, req *domain.StandardCalculatorRequest, company *domain.Company) *domain.StandardCalculatorResponse
	Type() domain.CalculatorType
}

// failure builds the standard failed response shape.
func failure(format string, args ...any) *domain.StandardCalculatorResponse {
	return &domain.StandardCalculatorResponse{
		Success:  false,
		Currency: "USD",
		Error:    fmt.Sprintf(format, args...),
	}
}

// withFailureRecovery enforces the no-throw contract in one place: it
// runs op and converts a returned error, a nil response, or a panic into
// the standard failed response.
func withFailureRecovery(op func() (*domain.StandardCalculatorResponse, error)) (resp *domain.StandardCalculatorResponse) {
	defer func() {
		if r := recover(); r != nil {
			resp = failure("calculator panic: %v", r)
		}
	}()

	resp, err := op()
	if err != nil {
		return failure("%v", err)
	}
	if resp == nil {
		return failure("calculator returned no response")
	}
	return resp
}

// firstNumber returns the first numeric value found under the candidate
// keys, in precedence order. Accepts JSON numbers and numeric strings,
// since upstream calculators disagree on both names and types.
func firstNumber(payload map[string]any, keys []string) (float64, bool) {
	for _, k := range keys {
		v, ok := payload[k]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n, true
		case string:
			if f, err := strconv.ParseFloat(n, 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

// firstString returns the first non-empty string under the candidate keys.
func firstString(payload map[string]any, keys []string) (string, bool) {
	for _, k := range keys {
		if s, ok := payload[k].(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}
