//go:build !integration

package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"coursepay/internal/domain"
	"coursepay/internal/domain/model"
	"coursepay/internal/domain/ports/adapter"
	"coursepay/internal/infra/signer"
)

func paidStatus() adapter.StatusResult {
	return adapter.StatusResult{Success: true, Code: "PAYMENT_SUCCESS", State: "COMPLETED"}
}

func TestConfirmUseCase_Confirm(t *testing.T) {
	ctx := context.Background()
	sg := signer.New("test-secret")
	txnID := "WS-1700000000000"
	email := "a@x.com"
	goodSig := sg.SignPair(email, txnID)

	t.Run("mints token on confirmed payment", func(t *testing.T) {
		gw := &mockGateway{status: paidStatus()}
		enrollments := newMemEnrollmentRepo()
		uc := NewConfirmUseCase(model.DefaultCatalog(), gw, sg, enrollments, nil, newTestLogger())

		grant, err := uc.Confirm(ctx, txnID, email, goodSig)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if ok, _ := sg.VerifyToken(grant.AccessToken, email); !ok {
			t.Error("minted token must verify for the buyer email")
		}

		// Enrollment insert is async; wait for it.
		select {
		case <-enrollments.saved:
		case <-time.After(2 * time.Second):
			t.Fatal("expected an enrollment insert")
		}
		rec := enrollments.byTxn(txnID)
		if rec == nil || rec.Email != email || rec.Product != model.ProductWorkshop {
			t.Errorf("unexpected enrollment record: %+v", rec)
		}
	})

	t.Run("forged signature rejected without provider call", func(t *testing.T) {
		gw := &mockGateway{status: paidStatus()}
		enrollments := newMemEnrollmentRepo()
		uc := NewConfirmUseCase(model.DefaultCatalog(), gw, sg, enrollments, nil, newTestLogger())

		badSig := sg.SignPair("attacker@x.com", txnID)
		_, err := uc.Confirm(ctx, txnID, email, badSig)
		if !errors.Is(err, domain.ErrBadTicket) {
			t.Fatalf("expected ErrBadTicket, got: %v", err)
		}
		if gw.statusCalls != 0 {
			t.Error("status query must not run for a forged ticket")
		}
		if enrollments.count() != 0 {
			t.Error("no enrollment write may be attempted")
		}
	})

	t.Run("unpaid status rejected without token", func(t *testing.T) {
		gw := &mockGateway{status: adapter.StatusResult{Code: "PAYMENT_PENDING", State: "PENDING"}}
		uc := NewConfirmUseCase(model.DefaultCatalog(), gw, sg, newMemEnrollmentRepo(), nil, newTestLogger())

		_, err := uc.Confirm(ctx, txnID, email, goodSig)
		if !errors.Is(err, domain.ErrPaymentNotCompleted) {
			t.Fatalf("expected ErrPaymentNotCompleted, got: %v", err)
		}
	})

	t.Run("provider failure surfaced as retryable", func(t *testing.T) {
		gw := &mockGateway{statusErr: errors.New("timeout")}
		uc := NewConfirmUseCase(model.DefaultCatalog(), gw, sg, newMemEnrollmentRepo(), nil, newTestLogger())

		_, err := uc.Confirm(ctx, txnID, email, goodSig)
		if !errors.Is(err, domain.ErrPaymentUnavailable) {
			t.Fatalf("expected ErrPaymentUnavailable, got: %v", err)
		}
	})

	t.Run("no gateway means nothing to confirm", func(t *testing.T) {
		uc := NewConfirmUseCase(model.DefaultCatalog(), nil, sg, newMemEnrollmentRepo(), nil, newTestLogger())
		_, err := uc.Confirm(ctx, txnID, email, goodSig)
		if !errors.Is(err, domain.ErrPSPNotConfigured) {
			t.Fatalf("expected ErrPSPNotConfigured, got: %v", err)
		}
	})

	t.Run("double confirmation does not duplicate enrollment", func(t *testing.T) {
		gw := &mockGateway{status: paidStatus()}
		enrollments := newMemEnrollmentRepo()
		uc := NewConfirmUseCase(model.DefaultCatalog(), gw, sg, enrollments, nil, newTestLogger())

		for i := 0; i < 2; i++ {
			grant, err := uc.Confirm(ctx, txnID, email, goodSig)
			if err != nil {
				t.Fatalf("confirmation %d failed: %v", i+1, err)
			}
			if ok, _ := sg.VerifyToken(grant.AccessToken, email); !ok {
				t.Errorf("token from confirmation %d must verify", i+1)
			}
			select {
			case <-enrollments.saved:
			case <-time.After(2 * time.Second):
				t.Fatal("expected the enrollment insert to run")
			}
		}
		if enrollments.count() != 1 {
			t.Errorf("expected exactly 1 enrollment record, got %d", enrollments.count())
		}
	})

	t.Run("flagship defers enrollment to preview completion", func(t *testing.T) {
		gw := &mockGateway{status: paidStatus()}
		enrollments := newMemEnrollmentRepo()
		uc := NewConfirmUseCase(model.DefaultCatalog(), gw, sg, enrollments, nil, newTestLogger())

		fcTxn := "FC-1700000000000"
		grant, err := uc.Confirm(ctx, fcTxn, email, sg.SignPair(email, fcTxn))
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if grant.AccessToken == "" {
			t.Fatal("flagship confirmation must still mint a token")
		}
		// Give any stray async insert a moment to land.
		time.Sleep(50 * time.Millisecond)
		if enrollments.count() != 0 {
			t.Error("flagship enrollment must be deferred to preview completion")
		}
	})
}

func TestConfirmUseCase_CompletePreview(t *testing.T) {
	ctx := context.Background()
	sg := signer.New("test-secret")
	email := "a@x.com"

	fcTxn := "FC-1700000000000"

	t.Run("writes enrollment with a valid token", func(t *testing.T) {
		enrollments := newMemEnrollmentRepo()
		uc := NewConfirmUseCase(model.DefaultCatalog(), nil, sg, enrollments, nil, newTestLogger())

		token := sg.IssueToken(email, 30*24*time.Hour)
		err := uc.CompletePreview(ctx, token, email, model.PreviewCompletion{TransactionID: fcTxn, Name: "A", Phone: "+911234567890"})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if enrollments.count() != 1 {
			t.Fatalf("expected 1 enrollment, got %d", enrollments.count())
		}
		rec := enrollments.byTxn(fcTxn)
		if rec == nil || rec.Product != model.ProductFlagship {
			t.Errorf("enrollment not keyed by the payment transaction: %+v", rec)
		}
	})

	t.Run("double-submitted completion dedupes on the transaction id", func(t *testing.T) {
		enrollments := newMemEnrollmentRepo()
		uc := NewConfirmUseCase(model.DefaultCatalog(), nil, sg, enrollments, nil, newTestLogger())

		token := sg.IssueToken(email, 30*24*time.Hour)
		for i := 0; i < 2; i++ {
			err := uc.CompletePreview(ctx, token, email, model.PreviewCompletion{TransactionID: fcTxn, Name: "A"})
			if err != nil {
				t.Fatalf("completion %d failed: %v", i+1, err)
			}
		}
		if enrollments.count() != 1 {
			t.Errorf("expected exactly 1 enrollment, got %d", enrollments.count())
		}
	})

	t.Run("rejects a missing or foreign transaction id", func(t *testing.T) {
		enrollments := newMemEnrollmentRepo()
		uc := NewConfirmUseCase(model.DefaultCatalog(), nil, sg, enrollments, nil, newTestLogger())

		token := sg.IssueToken(email, 30*24*time.Hour)
		for _, txn := range []string{"", "WS-1700000000000", "XX-1"} {
			err := uc.CompletePreview(ctx, token, email, model.PreviewCompletion{TransactionID: txn, Name: "A"})
			if !errors.Is(err, domain.ErrInvalidArgument) {
				t.Errorf("txn %q: expected ErrInvalidArgument, got: %v", txn, err)
			}
		}
		if enrollments.count() != 0 {
			t.Error("no enrollment may be written")
		}
	})

	t.Run("stolen token cannot complete for another buyer", func(t *testing.T) {
		enrollments := newMemEnrollmentRepo()
		uc := NewConfirmUseCase(model.DefaultCatalog(), nil, sg, enrollments, nil, newTestLogger())

		token := sg.IssueToken("victim@x.com", 30*24*time.Hour)
		err := uc.CompletePreview(ctx, token, "attacker@x.com", model.PreviewCompletion{TransactionID: fcTxn, Name: "X"})
		if !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got: %v", err)
		}
		if enrollments.count() != 0 {
			t.Error("no enrollment may be fabricated")
		}
	})

	t.Run("expired token rejected", func(t *testing.T) {
		clock := time.Now()
		expSigner := signer.NewWithClock("test-secret", func() time.Time { return clock })
		uc := NewConfirmUseCase(model.DefaultCatalog(), nil, expSigner, newMemEnrollmentRepo(), nil, newTestLogger())

		token := expSigner.IssueToken(email, time.Hour)
		clock = clock.Add(2 * time.Hour)
		if err := uc.CompletePreview(ctx, token, email, model.PreviewCompletion{}); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got: %v", err)
		}
	})
}
