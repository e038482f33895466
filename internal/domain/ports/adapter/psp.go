package adapter

import (
	"context"
	"fmt"
)

// InitiateRequest carries everything a provider needs to create a hosted
// checkout page.
type InitiateRequest struct {
	TransactionID string
	AmountMinor   int64
	BuyerName     string
	BuyerEmail    string
	BuyerPhone    string
	RedirectURL   string
}

// StatusResult is the provider-shaped outcome of a status query. The two
// dialects signal success differently, so callers go through Paid() instead
// of reading fields directly.
type StatusResult struct {
	Success bool
	Code    string
	State   string
	Raw     map[string]any
}

// Paid reports whether the provider considers the payment completed, under
// either dialect's success signal.
func (r StatusResult) Paid() bool {
	return r.Success || r.Code == "PAYMENT_SUCCESS" || r.State == "COMPLETED"
}

// PSPError is a typed provider-call failure carrying the provider's message
// when one was available.
type PSPError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *PSPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("psp call failed: status=%d code=%s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("psp call failed: status=%d code=%s", e.StatusCode, e.Code)
}

// PSPGateway is the hex port for payment providers.
type PSPGateway interface {
	Name() string

	// InitiatePayment creates a payment intent and returns the URL the
	// buyer's browser should be redirected to.
	InitiatePayment(ctx context.Context, req InitiateRequest) (redirectURL string, err error)
	// FetchStatus queries the final state of a transaction.
	FetchStatus(ctx context.Context, transactionID string) (StatusResult, error)
}
