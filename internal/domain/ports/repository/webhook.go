package repository

import (
	"context"

	"coursepay/internal/domain/model"
)

// WebhookLogRepository is the append-only PSP callback log. FindByTransactionID
// serves manual reconciliation only; the synchronous confirmation path never
// reads this log.
type WebhookLogRepository interface {
	Append(ctx context.Context, ev *model.WebhookEvent) error
	FindByTransactionID(ctx context.Context, transactionID string) ([]*model.WebhookEvent, error)
}
