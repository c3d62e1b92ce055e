package service

import (
	"context"
	"log/slog"

	"github.com/hirescope/hirescope/internal/natsutil"
)

// natsEnvelope is the JSON body published for every event.
type natsEnvelope struct {
	Event
	EventType string `json:"event_type"`
}

// NATSProvider publishes events to <prefix>.<event_type>.
type NATSProvider struct {
	conn   natsutil.MsgPublisher
	prefix string
}

// NewNATSProvider creates a provider publishing through conn under prefix.
func NewNATSProvider(conn natsutil.MsgPublisher, prefix string) *NATSProvider {
	return &NATSProvider{conn: conn, prefix: prefix}
}

// Subject returns the subject an event of the given type is published to.
func (p *NATSProvider) Subject(eventType string) string {
	if p.prefix == "" {
		return eventType
	}

	return p.prefix + "." + eventType
}

// PublishEvent publishes event; failures are logged and the event is lost.
func (p *NATSProvider) PublishEvent(ctx context.Context, event Event) {
	eventType := event.Type.String()
	subject := p.Subject(eventType)

	if err := natsutil.Publish(ctx, p.conn, subject, natsEnvelope{Event: event, EventType: eventType}); err != nil {
		slog.ErrorContext(ctx, "failed to publish event to NATS",
			"event_id", event.ID,
			"event_type", eventType,
			"subject", subject,
			"error", err,
		)
	}
}
