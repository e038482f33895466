package model

import (
	"fmt"
	"strings"
	"time"

	"coursepay/internal/domain"
)

// PurchaseIntent is the transient input to a checkout request. It is never
// persisted; the signed redirect ticket carries everything needed to
// reconstruct the transaction after the PSP round-trip.
type PurchaseIntent struct {
	Product ProductSKU `json:"product"`
	Name    string     `json:"name"`
	Email   string     `json:"email"`
	Phone   string     `json:"phone"`
}

func (i PurchaseIntent) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidArgument)
	}
	if strings.TrimSpace(i.Email) == "" || !strings.Contains(i.Email, "@") {
		return fmt.Errorf("%w: valid email is required", domain.ErrInvalidArgument)
	}
	if strings.TrimSpace(i.Phone) == "" {
		return fmt.Errorf("%w: phone is required", domain.ErrInvalidArgument)
	}
	return nil
}

// NewTransactionID builds a merchant transaction id "{prefix}-{epochMillis}".
// IDs are client-generated and never reused; the timestamp component makes
// collisions a non-concern.
func NewTransactionID(p *Product, now time.Time) string {
	return fmt.Sprintf("%s-%d", p.Prefix, now.UnixMilli())
}

// CheckoutResult is the outcome of the INITIATED step. Exactly one of
// RedirectURL (real PSP round-trip ahead) or AccessToken (direct grant via
// the dummy-pay path) is set.
type CheckoutResult struct {
	TransactionID string
	RedirectURL   string
	AccessToken   string
	MeetingURL    string
	ExpiresAt     time.Time
}

// Direct reports whether the checkout was granted without a PSP round-trip.
func (r *CheckoutResult) Direct() bool { return r.AccessToken != "" }

// GrantResult is what a confirmed payment yields. TransactionID rides along
// so deferred-enrollment products can echo it in the completion call.
type GrantResult struct {
	TransactionID string
	AccessToken   string
	MeetingURL    string
	ExpiresAt     time.Time
}

// PreviewCompletion is the payload of the second phase of the flagship
// product's two-phase commitment. TransactionID is the payment's merchant
// transaction id; repeated completions with the same id dedupe on it.
type PreviewCompletion struct {
	TransactionID string `json:"transactionId"`
	Name          string `json:"name"`
	Phone         string `json:"phone"`
}
