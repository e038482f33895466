package adapter

import (
	"context"

	"coursepay/internal/domain/model"
)

// Notifier is the port for outbound confirmation messages. Implementations
// are simple side-effecting senders with no internal state machine.
type Notifier interface {
	Name() string
	Send(ctx context.Context, n model.Notification) error
}
