//go:build !integration

package psp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"coursepay/internal/config"
	"coursepay/internal/domain"
	"coursepay/internal/domain/ports/adapter"
)

func TestNew_DialectSelection(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.PSPConfig
		wantName string
		wantErr  error
	}{
		{
			name: "oauth credentials win",
			cfg: config.PSPConfig{
				MerchantID: "M1", SaltKey: "salt",
				ClientID: "c", ClientSecret: "s", ClientVersion: "1",
			},
			wantName: "oauth-v2",
		},
		{
			name:     "salt credentials alone select legacy",
			cfg:      config.PSPConfig{MerchantID: "M1", SaltKey: "salt"},
			wantName: "salt-v1",
		},
		{
			name:    "partial oauth set does not select oauth",
			cfg:     config.PSPConfig{ClientID: "c", ClientSecret: "s"},
			wantErr: domain.ErrPSPNotConfigured,
		},
		{
			name:    "salt key without merchant id is not configured",
			cfg:     config.PSPConfig{SaltKey: "salt"},
			wantErr: domain.ErrPSPNotConfigured,
		},
		{
			name:    "empty config is not configured",
			cfg:     config.PSPConfig{},
			wantErr: domain.ErrPSPNotConfigured,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw, err := New(tt.cfg, testLogger())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if gw.Name() != tt.wantName {
				t.Errorf("expected gateway %q, got %q", tt.wantName, gw.Name())
			}
		})
	}
}

// A hung provider must fail the call within the configured timeout; these
// requests sit on a user-facing redirect path.
func TestGateway_TimeoutBound(t *testing.T) {
	const timeout = 100 * time.Millisecond

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(10 * timeout)
	}))
	defer slow.Close()

	req := adapter.InitiateRequest{
		TransactionID: "WS-1700000000000",
		AmountMinor:   9900,
		BuyerName:     "A",
		BuyerEmail:    "a@x.com",
		RedirectURL:   "http://merchant.test/payment/redirect",
	}

	assertBounded := func(t *testing.T, op string, call func() error) {
		t.Helper()
		start := time.Now()
		err := call()
		elapsed := time.Since(start)
		if err == nil {
			t.Fatalf("%s: expected a timeout error", op)
		}
		if elapsed > 5*timeout {
			t.Errorf("%s: call took %v, not bounded by the %v timeout", op, elapsed, timeout)
		}
	}

	t.Run("salt dialect", func(t *testing.T) {
		cfg := config.PSPConfig{
			BaseURL:    slow.URL,
			MerchantID: "MERCHANT1",
			SaltKey:    "salt-key-1",
			SaltIndex:  "1",
			Timeout:    config.Duration(timeout),
		}
		g := NewSaltGateway(cfg, testLogger())

		assertBounded(t, "initiate", func() error {
			_, err := g.InitiatePayment(context.Background(), req)
			return err
		})
		assertBounded(t, "status", func() error {
			_, err := g.FetchStatus(context.Background(), req.TransactionID)
			return err
		})
	})

	t.Run("oauth dialect", func(t *testing.T) {
		cfg := config.PSPConfig{
			BaseURL:       slow.URL,
			AuthURL:       slow.URL + "/v1/oauth/token",
			ClientID:      "client-1",
			ClientSecret:  "secret-1",
			ClientVersion: "1",
			Timeout:       config.Duration(timeout),
		}
		g := NewOAuthGateway(cfg, testLogger())

		// The token exchange itself hangs, so both operations hit the bound.
		assertBounded(t, "initiate", func() error {
			_, err := g.InitiatePayment(context.Background(), req)
			return err
		})
		assertBounded(t, "status", func() error {
			_, err := g.FetchStatus(context.Background(), req.TransactionID)
			return err
		})
	})
}
