package gateway

import "fmt"

// UpstreamError wraps a failed upstream API call. The original error message
// is preserved verbatim and the call is never retried.
type UpstreamError struct {
	Provider string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s call failed: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// BudgetExceededError reports a refused call under hard budget enforcement.
type BudgetExceededError struct {
	Date   string
	Budget float64
	Spent  float64
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("daily budget exhausted for %s: spent $%.4f of $%.4f", e.Date, e.Spent, e.Budget)
}
