package model

import "time"

// WebhookEvent is one raw PSP callback, appended to the webhook log exactly
// as received. TransactionID is best-effort: PSP payloads are not guaranteed
// to echo it cleanly, so nil is a normal value. The log is append-only and
// read only by offline reconciliation, never by the confirmation path.
type WebhookEvent struct {
	ID            string // ULID, sortable by receipt time
	TransactionID *string
	Headers       string // request headers, JSON-encoded
	Body          []byte
	ReceivedAt    time.Time
}
