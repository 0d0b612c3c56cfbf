package redis

import (
	"context"
	"fmt"

	portssvc "github.com/SscSPs/rate_ingestor/internal/core/ports/services"
	"github.com/go-redis/redis/v8"
)

// EventPublisher delivers encoded events over Redis Pub/Sub, one channel per event name.
type EventPublisher struct {
	client redis.Cmdable
	prefix string
}

// NewEventPublisher creates an EventPublisher. prefix is prepended to channel names.
func NewEventPublisher(client redis.Cmdable, prefix string) *EventPublisher {
	return &EventPublisher{client: client, prefix: prefix}
}

// Channel returns the Pub/Sub channel used for an event name.
func (p *EventPublisher) Channel(name string) string {
	return p.prefix + name
}

// Publish sends payload on the event's channel.
func (p *EventPublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := p.client.Publish(ctx, p.Channel(channel), payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", channel, err)
	}
	return nil
}

var _ portssvc.EventTransport = (*EventPublisher)(nil)
