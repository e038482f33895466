// File: internal/usecase/webhook_uc.go
package usecase

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"coursepay/internal/domain/model"
	"coursepay/internal/domain/ports/repository"
	"coursepay/internal/infra/metrics"
)

// Compile-time check
var _ WebhookUseCase = (*webhookUC)(nil)

type WebhookUseCase interface {
	// Receive appends a raw PSP callback to the webhook log. It never
	// reports failure to the caller: a dropped webhook must not make the
	// provider retry-storm the endpoint.
	Receive(ctx context.Context, headers http.Header, body []byte)
}

type webhookUC struct {
	webhooks repository.WebhookLogRepository
	now      func() time.Time
	log      *zerolog.Logger
}

func NewWebhookUseCase(webhooks repository.WebhookLogRepository, logger *zerolog.Logger) *webhookUC {
	return &webhookUC{webhooks: webhooks, now: time.Now, log: logger}
}

func (u *webhookUC) Receive(ctx context.Context, headers http.Header, body []byte) {
	headerJSON, err := json.Marshal(headers)
	if err != nil {
		headerJSON = []byte("{}")
	}

	ev := &model.WebhookEvent{
		ID:            ulid.Make().String(),
		TransactionID: extractTransactionID(body),
		Headers:       string(headerJSON),
		Body:          body,
		ReceivedAt:    u.now(),
	}

	if err := u.webhooks.Append(ctx, ev); err != nil {
		metrics.IncWebhookEvent(false)
		u.log.Error().Err(err).Msg("webhook persistence failed")
		return
	}
	metrics.IncWebhookEvent(true)
	u.log.Debug().Str("event_id", ev.ID).Msg("webhook event stored")
}

// extractTransactionID pulls a merchant transaction id out of a PSP payload on
// a best-effort basis. Field names differ between dialects and some payloads
// wrap the real event in a base64 "response" envelope; nil is a normal result.
func extractTransactionID(body []byte) *string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil
	}
	if id := findTransactionID(payload); id != nil {
		return id
	}
	// Legacy dialect wraps the event: {"response": "<base64 json>"}.
	if enc, ok := payload["response"].(string); ok {
		if raw, err := base64.StdEncoding.DecodeString(enc); err == nil {
			var inner map[string]any
			if json.Unmarshal(raw, &inner) == nil {
				return findTransactionID(inner)
			}
		}
	}
	return nil
}

func findTransactionID(payload map[string]any) *string {
	for _, key := range []string{"merchantTransactionId", "transactionId", "merchantOrderId"} {
		if v, ok := payload[key].(string); ok && v != "" {
			return &v
		}
	}
	if data, ok := payload["data"].(map[string]any); ok {
		return findTransactionID(data)
	}
	return nil
}
