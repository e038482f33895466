package model

import "time"

type PaymentStatus string

const (
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
	PaymentStatusPending PaymentStatus = "pending"
)

// EnrollmentRecord is the durable side record written after a confirmed
// payment (or after preview completion for the flagship product). The access
// token, not this row, is the source of truth for entitlement; inserts are
// best-effort and never read back by this service.
type EnrollmentRecord struct {
	ID            string // UUID
	TransactionID string // merchant transaction id; unique, dedupes re-confirmations
	Product       ProductSKU
	Name          string
	Email         string
	Phone         string
	PaymentStatus PaymentStatus
	AmountMinor   int64
	Currency      string
	CreatedAt     time.Time
}
