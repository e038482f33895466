// File: internal/infra/psp/salt_gateway.go
package psp

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"coursepay/internal/config"
	"coursepay/internal/domain/ports/adapter"
	"coursepay/internal/infra/metrics"

	"github.com/rs/zerolog"
)

var _ adapter.PSPGateway = (*SaltGateway)(nil)

const (
	payPath    = "/pg/v1/pay"
	statusPath = "/pg/v1/status"
)

// SaltGateway implements the legacy dialect: a base64-encoded JSON payload
// signed with SHA-256 over payload + path + salt key, carried in the X-VERIFY
// header as "hash###saltIndex".
type SaltGateway struct {
	baseURL    string
	merchantID string
	saltKey    string
	saltIndex  string
	client     *http.Client
	log        *zerolog.Logger
}

func NewSaltGateway(cfg config.PSPConfig, logger *zerolog.Logger) *SaltGateway {
	return &SaltGateway{
		baseURL:    cfg.BaseURL,
		merchantID: cfg.MerchantID,
		saltKey:    cfg.SaltKey,
		saltIndex:  cfg.SaltIndex,
		client:     &http.Client{Timeout: cfg.Timeout.Std()},
		log:        logger,
	}
}

func (g *SaltGateway) Name() string { return "salt-v1" }

// checksum computes hex(sha256(data + saltKey)) + "###" + saltIndex.
func (g *SaltGateway) checksum(data string) string {
	sum := sha256.Sum256([]byte(data + g.saltKey))
	return hex.EncodeToString(sum[:]) + "###" + g.saltIndex
}

type saltPayResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		MerchantTransactionID string `json:"merchantTransactionId"`
		InstrumentResponse    struct {
			RedirectInfo struct {
				URL string `json:"url"`
			} `json:"redirectInfo"`
		} `json:"instrumentResponse"`
	} `json:"data"`
}

func (g *SaltGateway) InitiatePayment(ctx context.Context, req adapter.InitiateRequest) (string, error) {
	payload := map[string]any{
		"merchantId":            g.merchantID,
		"merchantTransactionId": req.TransactionID,
		"merchantUserId":        req.BuyerEmail,
		"amount":                req.AmountMinor,
		"redirectUrl":           req.RedirectURL,
		"redirectMode":          "POST",
		"callbackUrl":           req.RedirectURL,
		"mobileNumber":          req.BuyerPhone,
		"paymentInstrument":     map[string]any{"type": "PAY_PAGE"},
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal pay payload: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(jsonData)

	body, err := json.Marshal(map[string]string{"request": encoded})
	if err != nil {
		return "", fmt.Errorf("marshal request envelope: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+payPath, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("create pay request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-VERIFY", g.checksum(encoded+payPath))

	done := metrics.ObservePSPCall(g.Name(), "initiate")
	resp, err := g.client.Do(httpReq)
	if err != nil {
		done(false)
		return "", fmt.Errorf("send pay request: %w", err)
	}
	defer resp.Body.Close()

	var out saltPayResponse
	if err := decodeResponse(resp, &out); err != nil {
		done(false)
		return "", err
	}

	redirect := out.Data.InstrumentResponse.RedirectInfo.URL
	if !out.Success || redirect == "" {
		done(false)
		return "", &adapter.PSPError{StatusCode: resp.StatusCode, Code: out.Code, Message: out.Message}
	}
	done(true)
	return redirect, nil
}

type saltStatusResponse struct {
	Success bool           `json:"success"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

func (g *SaltGateway) FetchStatus(ctx context.Context, transactionID string) (adapter.StatusResult, error) {
	path := fmt.Sprintf("%s/%s/%s", statusPath, g.merchantID, transactionID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return adapter.StatusResult{}, fmt.Errorf("create status request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-VERIFY", g.checksum(path))
	httpReq.Header.Set("X-MERCHANT-ID", g.merchantID)

	done := metrics.ObservePSPCall(g.Name(), "status")
	resp, err := g.client.Do(httpReq)
	if err != nil {
		done(false)
		return adapter.StatusResult{}, fmt.Errorf("send status request: %w", err)
	}
	defer resp.Body.Close()

	var out saltStatusResponse
	if err := decodeResponse(resp, &out); err != nil {
		done(false)
		return adapter.StatusResult{}, err
	}
	done(true)

	result := adapter.StatusResult{Success: out.Success, Code: out.Code, Raw: out.Data}
	if state, ok := out.Data["state"].(string); ok {
		result.State = state
	}
	return result, nil
}
