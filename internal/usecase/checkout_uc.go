// File: internal/usecase/checkout_uc.go
package usecase

import (
	"context"
	"fmt"
	"net/url"
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
var _ CheckoutUseCase = (*checkoutUC)(nil)

type CheckoutUseCase interface {
	// Initiate starts a checkout. With a configured provider it returns a
	// redirect URL; otherwise (or on provider failure for fallback-eligible
	// products) it grants access directly via the dummy-pay path.
	Initiate(ctx context.Context, intent model.PurchaseIntent) (*model.CheckoutResult, error)
}

type checkoutUC struct {
	catalog     model.Catalog
	gateway     adapter.PSPGateway // nil when the provider is not configured
	signer      *signer.Signer
	enrollments repository.EnrollmentRepository
	notifier    adapter.Notifier // may be nil
	baseURL     string           // public base URL the PSP redirects back to
	now         func() time.Time
	log         *zerolog.Logger
}

func NewCheckoutUseCase(
	catalog model.Catalog,
	gateway adapter.PSPGateway,
	sg *signer.Signer,
	enrollments repository.EnrollmentRepository,
	notifier adapter.Notifier,
	baseURL string,
	logger *zerolog.Logger,
) *checkoutUC {
	return &checkoutUC{
		catalog:     catalog,
		gateway:     gateway,
		signer:      sg,
		enrollments: enrollments,
		notifier:    notifier,
		baseURL:     baseURL,
		now:         time.Now,
		log:         logger,
	}
}

func (u *checkoutUC) Initiate(ctx context.Context, intent model.PurchaseIntent) (*model.CheckoutResult, error) {
	product, ok := u.catalog.BySKU(intent.Product)
	if !ok {
		return nil, fmt.Errorf("%w: unknown product %q", domain.ErrInvalidArgument, intent.Product)
	}
	if err := intent.Validate(); err != nil {
		return nil, err
	}

	txnID := model.NewTransactionID(product, u.now())
	log := logging.With(logging.WithTxnID(ctx, txnID), u.log)

	if u.gateway == nil {
		metrics.IncCheckoutFallback("unconfigured")
		log.Info().Str("product", string(product.SKU)).Msg("provider not configured, granting via dummy-pay")
		return u.grantDirect(ctx, product, intent, txnID)
	}

	redirectURL, err := u.gateway.InitiatePayment(ctx, adapter.InitiateRequest{
		TransactionID: txnID,
		AmountMinor:   product.PriceMinor,
		BuyerName:     intent.Name,
		BuyerEmail:    intent.Email,
		BuyerPhone:    intent.Phone,
		RedirectURL:   u.returnURL(product, intent.Email, txnID),
	})
	if err != nil {
		if !product.AllowFallback {
			log.Warn().Err(err).Str("product", string(product.SKU)).Msg("payment initiation failed")
			return nil, fmt.Errorf("%w: %v", domain.ErrPaymentUnavailable, err)
		}
		metrics.IncCheckoutFallback("psp_error")
		log.Warn().Err(err).Str("product", string(product.SKU)).Msg("payment initiation failed, granting via dummy-pay")
		return u.grantDirect(ctx, product, intent, txnID)
	}

	log.Info().Str("gateway", u.gateway.Name()).Str("product", string(product.SKU)).Msg("checkout initiated")
	return &model.CheckoutResult{TransactionID: txnID, RedirectURL: redirectURL}, nil
}

// returnURL builds the signed confirmation ticket into the URL the PSP sends
// the buyer's browser back to. No server-side state backs this round-trip;
// the signature is what makes the ticket trustworthy after a restart.
func (u *checkoutUC) returnURL(product *model.Product, email, txnID string) string {
	q := url.Values{}
	q.Set("purpose", string(product.SKU))
	q.Set("transactionId", txnID)
	q.Set("email", email)
	q.Set("signature", u.signer.SignPair(email, txnID))
	return u.baseURL + "/payment/redirect?" + q.Encode()
}

// grantDirect is the dummy-pay path: the purchase is treated as immediately
// successful. Unlike the post-confirmation path the enrollment insert is
// synchronous, but a failed insert still does not void the grant.
func (u *checkoutUC) grantDirect(ctx context.Context, product *model.Product, intent model.PurchaseIntent, txnID string) (*model.CheckoutResult, error) {
	token := u.signer.IssueToken(intent.Email, product.TokenTTL)
	expiresAt := u.now().Add(product.TokenTTL)
	metrics.IncTokenIssued(string(product.SKU))
	metrics.IncPayment("confirmed")

	// Deferred-enrollment products get their row from CompletePreview only,
	// on the dummy-pay path just like the real one.
	if !product.DeferEnrollment {
		rec := &model.EnrollmentRecord{
			ID:            uuid.NewString(),
			TransactionID: txnID,
			Product:       product.SKU,
			Name:          intent.Name,
			Email:         intent.Email,
			Phone:         intent.Phone,
			PaymentStatus: model.PaymentStatusSuccess,
			AmountMinor:   product.PriceMinor,
			Currency:      product.Currency,
			CreatedAt:     u.now(),
		}
		if err := u.enrollments.Save(ctx, rec); err != nil {
			u.log.Error().Err(err).Str("txn_id", txnID).Msg("enrollment insert failed after dummy-pay grant")
		}
	}

	if u.notifier != nil {
		notifyAsync(u.notifier, confirmationNote(product, intent.Email, intent.Phone), u.log)
	}

	return &model.CheckoutResult{
		TransactionID: txnID,
		AccessToken:   token,
		MeetingURL:    product.MeetingURL,
		ExpiresAt:     expiresAt,
	}, nil
}

// notifyAsync fires a confirmation message without blocking the response.
// Delivery failures are logged only; the token is already the source of truth.
func notifyAsync(n adapter.Notifier, note model.Notification, log *zerolog.Logger) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := n.Send(ctx, note); err != nil {
			log.Error().Err(err).Str("notifier", n.Name()).Msg("confirmation notification failed")
		}
	}()
}

func confirmationNote(product *model.Product, email, phone string) model.Notification {
	return model.Notification{
		Email:      email,
		Phone:      phone,
		Product:    product.SKU,
		Subject:    "Your purchase is confirmed",
		Body:       fmt.Sprintf("Payment received for %s. Your access link is ready.", product.SKU),
		MeetingURL: product.MeetingURL,
	}
}
