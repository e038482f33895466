package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"coursepay/internal/domain"
	"coursepay/internal/domain/model"
	"coursepay/internal/domain/ports/repository"
)

var _ repository.WebhookLogRepository = (*webhookRepo)(nil)

type webhookRepo struct{ pool *pgxpool.Pool }

func NewWebhookRepo(pool *pgxpool.Pool) *webhookRepo {
	return &webhookRepo{pool: pool}
}

func (r *webhookRepo) Append(ctx context.Context, ev *model.WebhookEvent) error {
	const q = `
INSERT INTO webhook_events (id, transaction_id, headers, body, received_at)
VALUES ($1, $2, $3, $4, $5);`

	_, err := r.pool.Exec(ctx, q, ev.ID, ev.TransactionID, ev.Headers, ev.Body, ev.ReceivedAt)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrOperationFailed, err)
	}
	return nil
}

func (r *webhookRepo) FindByTransactionID(ctx context.Context, transactionID string) ([]*model.WebhookEvent, error) {
	const q = `
SELECT id, transaction_id, headers, body, received_at
FROM webhook_events WHERE transaction_id = $1 ORDER BY id;`

	rows, err := r.pool.Query(ctx, q, transactionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrOperationFailed, err)
	}
	defer rows.Close()

	var events []*model.WebhookEvent
	for rows.Next() {
		ev := &model.WebhookEvent{}
		if err := rows.Scan(&ev.ID, &ev.TransactionID, &ev.Headers, &ev.Body, &ev.ReceivedAt); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrOperationFailed, err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrOperationFailed, err)
	}
	return events, nil
}
