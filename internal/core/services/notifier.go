package services

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/SscSPs/rate_ingestor/internal/core/domain"
	portssvc "github.com/SscSPs/rate_ingestor/internal/core/ports/services"
)

// Notifier encodes events and hands their publication to the dispatcher.
type Notifier struct {
	BaseService
	transport  portssvc.EventTransport
	dispatcher portssvc.TaskDispatcher
}

// NewNotifier creates a Notifier publishing through transport.
func NewNotifier(transport portssvc.EventTransport, dispatcher portssvc.TaskDispatcher) *Notifier {
	return &Notifier{transport: transport, dispatcher: dispatcher}
}

// Emit schedules payload on the channel named after the event. It returns false when
// the payload cannot be encoded or the dispatcher no longer accepts work; delivery
// failures are only logged by the dispatcher.
func (n *Notifier) Emit(name domain.EventType, payload any) bool {
	body, err := json.Marshal(payload)
	if err != nil {
		n.LogError(context.Background(), err, "Failed to encode event", slog.String("event", string(name)))
		return false
	}
	channel := string(name)
	return n.dispatcher.Submit("event:"+channel, func(ctx context.Context) error {
		return n.transport.Publish(ctx, channel, body)
	})
}
