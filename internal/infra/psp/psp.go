// File: internal/infra/psp/psp.go
package psp

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"coursepay/internal/config"
	"coursepay/internal/domain"
	"coursepay/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

// New picks the provider dialect from which credential set is present. The
// choice is made once at construction and never re-checked per call. Absence
// of both credential sets is not an error mode for the service as a whole:
// callers fall back to dummy-pay.
func New(cfg config.PSPConfig, logger *zerolog.Logger) (adapter.PSPGateway, error) {
	switch {
	case cfg.ClientID != "" && cfg.ClientSecret != "" && cfg.ClientVersion != "":
		return NewOAuthGateway(cfg, logger), nil
	case cfg.MerchantID != "" && cfg.SaltKey != "":
		return NewSaltGateway(cfg, logger), nil
	default:
		return nil, domain.ErrPSPNotConfigured
	}
}

// decodeResponse reads an HTTP response and unmarshals it into out, turning
// non-2xx statuses into a typed *adapter.PSPError that carries the provider's
// own code/message when the body is parseable.
func decodeResponse(resp *http.Response, out any) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		pspErr := &adapter.PSPError{StatusCode: resp.StatusCode}
		var envelope struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &envelope) == nil {
			pspErr.Code = envelope.Code
			pspErr.Message = envelope.Message
		}
		return pspErr
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response: %w, body: %s", err, string(body))
	}
	return nil
}
