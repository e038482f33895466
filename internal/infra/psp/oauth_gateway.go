// File: internal/infra/psp/oauth_gateway.go
package psp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"coursepay/internal/config"
	"coursepay/internal/domain/ports/adapter"
	"coursepay/internal/infra/metrics"

	"github.com/rs/zerolog"
)

var _ adapter.PSPGateway = (*OAuthGateway)(nil)

// tokenRefreshMargin refreshes the cached bearer this long before the
// provider's expires_at to avoid racing the expiry on in-flight calls.
const tokenRefreshMargin = 60 * time.Second

// tokenCache is the only long-lived mutable state in the service. Concurrent
// refreshes are harmless: last write wins and every written token is valid.
type tokenCache struct {
	mu        sync.Mutex
	token     string
	tokenType string
	expiresAt int64 // provider epoch seconds
}

// OAuthGateway implements the modern dialect: client credentials exchanged
// for a bearer token, then plain REST calls with an Authorization header.
type OAuthGateway struct {
	baseURL       string
	authURL       string
	clientID      string
	clientSecret  string
	clientVersion string
	client        *http.Client
	cache         tokenCache
	now           func() time.Time
	log           *zerolog.Logger
}

func NewOAuthGateway(cfg config.PSPConfig, logger *zerolog.Logger) *OAuthGateway {
	return &OAuthGateway{
		baseURL:       cfg.BaseURL,
		authURL:       cfg.AuthURL,
		clientID:      cfg.ClientID,
		clientSecret:  cfg.ClientSecret,
		clientVersion: cfg.ClientVersion,
		client:        &http.Client{Timeout: cfg.Timeout.Std()},
		now:           time.Now,
		log:           logger,
	}
}

func (g *OAuthGateway) Name() string { return "oauth-v2" }

type authResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresAt   int64  `json:"expires_at"`
}

// bearer returns a cached "{tokenType} {token}" header value, refreshing via
// the token endpoint when the cached one is within the refresh margin.
func (g *OAuthGateway) bearer(ctx context.Context) (string, error) {
	g.cache.mu.Lock()
	defer g.cache.mu.Unlock()

	if g.cache.token != "" && g.now().Unix() < g.cache.expiresAt-int64(tokenRefreshMargin.Seconds()) {
		return g.cache.tokenType + " " + g.cache.token, nil
	}

	form := url.Values{}
	form.Set("client_id", g.clientID)
	form.Set("client_secret", g.clientSecret)
	form.Set("client_version", g.clientVersion)
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send token request: %w", err)
	}
	defer resp.Body.Close()

	var out authResponse
	if err := decodeResponse(resp, &out); err != nil {
		return "", fmt.Errorf("token exchange: %w", err)
	}
	if out.AccessToken == "" {
		return "", &adapter.PSPError{StatusCode: resp.StatusCode, Message: "token endpoint returned no access_token"}
	}
	if out.TokenType == "" {
		out.TokenType = "O-Bearer"
	}

	g.cache.token = out.AccessToken
	g.cache.tokenType = out.TokenType
	g.cache.expiresAt = out.ExpiresAt
	g.log.Debug().Str("gateway", g.Name()).Int64("expires_at", out.ExpiresAt).Msg("refreshed psp bearer token")

	return out.TokenType + " " + out.AccessToken, nil
}

type oauthPayResponse struct {
	OrderID     string `json:"orderId"`
	State       string `json:"state"`
	RedirectURL string `json:"redirectUrl"`
	Message     string `json:"message"`
}

func (g *OAuthGateway) InitiatePayment(ctx context.Context, req adapter.InitiateRequest) (string, error) {
	auth, err := g.bearer(ctx)
	if err != nil {
		return "", err
	}

	payload := map[string]any{
		"merchantOrderId": req.TransactionID,
		"amount":          req.AmountMinor,
		"metaInfo": map[string]any{
			"udf1": req.BuyerName,
			"udf2": req.BuyerEmail,
			"udf3": req.BuyerPhone,
		},
		"paymentFlow": map[string]any{
			"type": "PG_CHECKOUT",
			"merchantUrls": map[string]any{
				"redirectUrl": req.RedirectURL,
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal checkout payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/checkout/v2/pay", bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("create checkout request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", auth)

	done := metrics.ObservePSPCall(g.Name(), "initiate")
	resp, err := g.client.Do(httpReq)
	if err != nil {
		done(false)
		return "", fmt.Errorf("send checkout request: %w", err)
	}
	defer resp.Body.Close()

	var out oauthPayResponse
	if err := decodeResponse(resp, &out); err != nil {
		done(false)
		return "", err
	}
	if out.RedirectURL == "" {
		done(false)
		return "", &adapter.PSPError{StatusCode: resp.StatusCode, Message: out.Message}
	}
	done(true)
	return out.RedirectURL, nil
}

func (g *OAuthGateway) FetchStatus(ctx context.Context, transactionID string) (adapter.StatusResult, error) {
	auth, err := g.bearer(ctx)
	if err != nil {
		return adapter.StatusResult{}, err
	}

	statusURL := fmt.Sprintf("%s/checkout/v2/order/%s/status", g.baseURL, transactionID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
	if err != nil {
		return adapter.StatusResult{}, fmt.Errorf("create status request: %w", err)
	}
	httpReq.Header.Set("Authorization", auth)

	done := metrics.ObservePSPCall(g.Name(), "status")
	resp, err := g.client.Do(httpReq)
	if err != nil {
		done(false)
		return adapter.StatusResult{}, fmt.Errorf("send status request: %w", err)
	}
	defer resp.Body.Close()

	var raw map[string]any
	if err := decodeResponse(resp, &raw); err != nil {
		done(false)
		return adapter.StatusResult{}, err
	}
	done(true)

	result := adapter.StatusResult{Raw: raw}
	if state, ok := raw["state"].(string); ok {
		result.State = state
	}
	if code, ok := raw["code"].(string); ok {
		result.Code = code
	}
	return result, nil
}
