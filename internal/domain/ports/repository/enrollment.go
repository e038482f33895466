package repository

import (
	"context"

	"coursepay/internal/domain/model"
)

// EnrollmentRepository performs inserts only. Enrollment rows are owned by
// external storage; this service never updates or reads them back.
type EnrollmentRepository interface {
	Save(ctx context.Context, rec *model.EnrollmentRecord) error
}
