// File: internal/usecase/confirm_uc.go
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"coursepay/internal/domain"
	"coursepay/internal/domain/model"
	"coursepay/internal/domain/ports/adapter"
	"coursepay/internal/domain/ports/repository"
	"coursepay/internal/infra/logging"
	"coursepay/internal/infra/metrics"
	"coursepay/internal/infra/signer"
)

// Compile-time check
var _ ConfirmUseCase = (*confirmUC)(nil)

type ConfirmUseCase interface {
	// Confirm validates the redirect ticket, queries the provider for the
	// final status and mints an access token on success.
	Confirm(ctx context.Context, txnID, email, signature string) (*model.GrantResult, error)
	// CompletePreview is the second phase of the flagship product's
	// commitment: the enrollment row is written only here, and only for a
	// bearer whose token matches the email.
	CompletePreview(ctx context.Context, token, email string, form model.PreviewCompletion) error
}

type confirmUC struct {
	catalog     model.Catalog
	gateway     adapter.PSPGateway // nil when the provider is not configured
	signer      *signer.Signer
	enrollments repository.EnrollmentRepository
	notifier    adapter.Notifier // may be nil
	now         func() time.Time
	log         *zerolog.Logger
}

func NewConfirmUseCase(
	catalog model.Catalog,
	gateway adapter.PSPGateway,
	sg *signer.Signer,
	enrollments repository.EnrollmentRepository,
	notifier adapter.Notifier,
	logger *zerolog.Logger,
) *confirmUC {
	return &confirmUC{
		catalog:     catalog,
		gateway:     gateway,
		signer:      sg,
		enrollments: enrollments,
		notifier:    notifier,
		now:         time.Now,
		log:         logger,
	}
}

func (u *confirmUC) Confirm(ctx context.Context, txnID, email, signature string) (*model.GrantResult, error) {
	// The ticket signature is the sole integrity check: nothing about this
	// transaction was stored server-side before now.
	if !u.signer.VerifyPair(email, txnID, signature) {
		metrics.IncPayment("bad_ticket")
		return nil, domain.ErrBadTicket
	}
	product, ok := u.catalog.ByTransactionID(txnID)
	if !ok {
		metrics.IncPayment("bad_ticket")
		return nil, domain.ErrBadTicket
	}
	if u.gateway == nil {
		// Dummy-pay grants never round-trip through the provider, so a
		// confirmation call without one has nothing to verify against.
		return nil, domain.ErrPSPNotConfigured
	}

	log := logging.With(logging.WithTxnID(ctx, txnID), u.log)

	status, err := u.gateway.FetchStatus(ctx, txnID)
	if err != nil {
		log.Warn().Err(err).Msg("status query failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrPaymentUnavailable, err)
	}
	if !status.Paid() {
		metrics.IncPayment("rejected")
		log.Info().Str("code", status.Code).Str("state", status.State).Msg("payment not completed")
		return nil, domain.ErrPaymentNotCompleted
	}

	token := u.signer.IssueToken(email, product.TokenTTL)
	expiresAt := u.now().Add(product.TokenTTL)
	metrics.IncTokenIssued(string(product.SKU))
	metrics.IncPayment("confirmed")
	log.Info().Str("product", string(product.SKU)).Msg("payment confirmed")

	// Side effects run after the authoritative decision and never block or
	// roll back the grant: the buyer has genuinely paid.
	if !product.DeferEnrollment {
		u.saveEnrollmentAsync(product, txnID, email)
	}
	if u.notifier != nil {
		notifyAsync(u.notifier, confirmationNote(product, email, ""), u.log)
	}

	return &model.GrantResult{TransactionID: txnID, AccessToken: token, MeetingURL: product.MeetingURL, ExpiresAt: expiresAt}, nil
}

func (u *confirmUC) saveEnrollmentAsync(product *model.Product, txnID, email string) {
	rec := &model.EnrollmentRecord{
		ID:            uuid.NewString(),
		TransactionID: txnID,
		Product:       product.SKU,
		Email:         email,
		PaymentStatus: model.PaymentStatusSuccess,
		AmountMinor:   product.PriceMinor,
		Currency:      product.Currency,
		CreatedAt:     u.now(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := u.enrollments.Save(ctx, rec); err != nil {
			u.log.Error().Err(err).Str("txn_id", txnID).Msg("enrollment insert failed after confirmed payment")
		}
	}()
}

func (u *confirmUC) CompletePreview(ctx context.Context, token, email string, form model.PreviewCompletion) error {
	// Both phases require token verification: a stolen token cannot
	// fabricate a completion record for a different buyer.
	if ok, _ := u.signer.VerifyToken(token, email); !ok {
		return domain.ErrUnauthorized
	}
	// The payment's transaction id is the dedup key: a double-submitted
	// completion form lands on the same UNIQUE(transaction_id) row.
	product, ok := u.catalog.ByTransactionID(form.TransactionID)
	if !ok || !product.DeferEnrollment {
		return fmt.Errorf("%w: completion requires the payment's transaction id", domain.ErrInvalidArgument)
	}

	rec := &model.EnrollmentRecord{
		ID:            uuid.NewString(),
		TransactionID: form.TransactionID,
		Product:       product.SKU,
		Name:          form.Name,
		Email:         email,
		Phone:         form.Phone,
		PaymentStatus: model.PaymentStatusSuccess,
		AmountMinor:   product.PriceMinor,
		Currency:      product.Currency,
		CreatedAt:     u.now(),
	}
	if err := u.enrollments.Save(ctx, rec); err != nil {
		return fmt.Errorf("save enrollment: %w", err)
	}
	u.log.Info().Str("email", logging.Redact(email, false)).Msg("preview completed, flagship enrollment recorded")
	return nil
}
