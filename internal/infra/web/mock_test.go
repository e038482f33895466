//go:build !integration

package web

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"coursepay/internal/domain/model"
	"coursepay/internal/usecase"
)

// newTestLogger creates a silent logger for tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(nil)
	return &logger
}

// ---- usecase mocks ----

var _ usecase.CheckoutUseCase = (*mockCheckoutUC)(nil)

type mockCheckoutUC struct {
	result *model.CheckoutResult
	err    error
	last   model.PurchaseIntent
}

func (m *mockCheckoutUC) Initiate(ctx context.Context, intent model.PurchaseIntent) (*model.CheckoutResult, error) {
	m.last = intent
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

var _ usecase.ConfirmUseCase = (*mockConfirmUC)(nil)

type mockConfirmUC struct {
	grant       *model.GrantResult
	confirmErr  error
	completeErr error
	lastTxnID   string
	lastEmail   string
	lastSig     string
}

func (m *mockConfirmUC) Confirm(ctx context.Context, txnID, email, signature string) (*model.GrantResult, error) {
	m.lastTxnID, m.lastEmail, m.lastSig = txnID, email, signature
	if m.confirmErr != nil {
		return nil, m.confirmErr
	}
	return m.grant, nil
}

func (m *mockConfirmUC) CompletePreview(ctx context.Context, token, email string, form model.PreviewCompletion) error {
	return m.completeErr
}

var _ usecase.WebhookUseCase = (*mockWebhookUC)(nil)

type mockWebhookUC struct {
	calls  int
	bodies [][]byte
}

func (m *mockWebhookUC) Receive(ctx context.Context, headers http.Header, body []byte) {
	m.calls++
	m.bodies = append(m.bodies, body)
}

var _ usecase.ResourceUseCase = (*mockResourceUC)(nil)

type mockResourceUC struct {
	resources []model.Resource
	upsell    string
	err       error
}

func (m *mockResourceUC) Resolve(token, email string, sku model.ProductSKU) ([]model.Resource, string, error) {
	if m.err != nil {
		return nil, "", m.err
	}
	return m.resources, m.upsell, nil
}

// ---- webhook log repo mock (reconciliation reads) ----

type mockWebhookRepo struct {
	events  []*model.WebhookEvent
	findErr error
}

func (m *mockWebhookRepo) Append(ctx context.Context, ev *model.WebhookEvent) error { return nil }

func (m *mockWebhookRepo) FindByTransactionID(ctx context.Context, transactionID string) ([]*model.WebhookEvent, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	var out []*model.WebhookEvent
	for _, ev := range m.events {
		if ev.TransactionID != nil && *ev.TransactionID == transactionID {
			out = append(out, ev)
		}
	}
	return out, nil
}
