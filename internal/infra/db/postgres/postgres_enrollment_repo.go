package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4/pgxpool"

	"coursepay/internal/domain"
	"coursepay/internal/domain/model"
	"coursepay/internal/domain/ports/repository"
)

var _ repository.EnrollmentRepository = (*enrollmentRepo)(nil)

type enrollmentRepo struct{ pool *pgxpool.Pool }

func NewEnrollmentRepo(pool *pgxpool.Pool) *enrollmentRepo {
	return &enrollmentRepo{pool: pool}
}

func (r *enrollmentRepo) Save(ctx context.Context, rec *model.EnrollmentRecord) error {
	const q = `
INSERT INTO enrollments (
  id, transaction_id, product, name, email, phone, payment_status, amount_minor, currency, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10
) ON CONFLICT (transaction_id) DO NOTHING;`

	// We don't check for an existing row: the UNIQUE constraint on
	// transaction_id makes a re-confirmation of the same payment a no-op.
	_, err := r.pool.Exec(ctx, q,
		rec.ID, rec.TransactionID, rec.Product, rec.Name, rec.Email, rec.Phone,
		rec.PaymentStatus, rec.AmountMinor, rec.Currency, rec.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil
		}
		return fmt.Errorf("%w: %v", domain.ErrOperationFailed, err)
	}
	return nil
}
