// File: internal/infra/notify/sender.go
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"coursepay/internal/domain/model"
	"coursepay/internal/domain/ports/adapter"
)

const senderTimeout = 10 * time.Second

var _ adapter.Notifier = (*httpSender)(nil)

// httpSender posts a confirmation message to an external relay endpoint
// (transactional email service, WhatsApp relay). The relay is a black box;
// this side only cares about a 2xx.
type httpSender struct {
	name     string
	endpoint string
	apiKey   string
	client   *http.Client
	log      *zerolog.Logger
}

func NewEmailSender(endpoint, apiKey string, logger *zerolog.Logger) *httpSender {
	return &httpSender{name: "email", endpoint: endpoint, apiKey: apiKey, client: &http.Client{Timeout: senderTimeout}, log: logger}
}

func NewWhatsAppSender(endpoint, apiKey string, logger *zerolog.Logger) *httpSender {
	return &httpSender{name: "whatsapp", endpoint: endpoint, apiKey: apiKey, client: &http.Client{Timeout: senderTimeout}, log: logger}
}

func (s *httpSender) Name() string { return s.name }

func (s *httpSender) Send(ctx context.Context, n model.Notification) error {
	payload, err := json.Marshal(map[string]string{
		"email":       n.Email,
		"phone":       n.Phone,
		"product":     string(n.Product),
		"subject":     n.Subject,
		"body":        n.Body,
		"meeting_url": n.MeetingURL,
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("create notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send %s notification: %w", s.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s relay returned status %d", s.name, resp.StatusCode)
	}
	return nil
}

var _ adapter.Notifier = (Multi)(nil)

// Multi fans one notification out to every configured channel. The first
// failure is returned but remaining senders still run.
type Multi []adapter.Notifier

func (m Multi) Name() string { return "multi" }

func (m Multi) Send(ctx context.Context, n model.Notification) error {
	var firstErr error
	for _, sender := range m {
		if err := sender.Send(ctx, n); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
