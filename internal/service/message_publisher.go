package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hirescope/hirescope/internal/datatypes"
	"github.com/hirescope/hirescope/internal/observability"
)

// DefaultEventBufferSize is the event channel capacity when none is configured.
const DefaultEventBufferSize = 1024

// Event is a candidate lifecycle event delivered to providers.
type Event struct {
	ID        uuid.UUID           `json:"id"` // UUID v7, time-ordered
	Type      datatypes.EventType `json:"-"`
	Timestamp int64               `json:"timestamp"` // Unix seconds
	Data      any                 `json:"data"`
}

// MessagePublisher publishes candidate events. PublishEvent never blocks.
type MessagePublisher interface {
	PublishEvent(ctx context.Context, eventType datatypes.EventType, data any)
}

// eventPublisher is implemented by providers that receive a full Event.
type eventPublisher interface {
	PublishEvent(ctx context.Context, event Event)
}

// MessagePublisherManager buffers events and fans each one out to all registered providers
// from a single worker goroutine. Events are dropped when the buffer is full.
type MessagePublisherManager struct {
	eventChan chan Event
	providers []eventPublisher
	metrics   observability.EventMetrics
	wg        sync.WaitGroup
}

// NewMessagePublisherManager starts the fan-out worker. metrics may be nil.
func NewMessagePublisherManager(bufferSize int, metrics observability.EventMetrics) *MessagePublisherManager {
	if bufferSize <= 0 {
		bufferSize = DefaultEventBufferSize
	}

	m := &MessagePublisherManager{
		eventChan: make(chan Event, bufferSize),
		providers: make([]eventPublisher, 0),
		metrics:   metrics,
	}

	m.wg.Add(1)

	go m.startWorker()

	return m
}

// RegisterProvider adds a provider. Must only be called during startup, before any events are published.
func (m *MessagePublisherManager) RegisterProvider(provider eventPublisher) {
	m.providers = append(m.providers, provider)
}

// PublishEvent enqueues an event for all providers.
func (m *MessagePublisherManager) PublishEvent(ctx context.Context, eventType datatypes.EventType, data any) {
	event := Event{
		ID:        uuid.Must(uuid.NewV7()),
		Type:      eventType,
		Timestamp: time.Now().Unix(),
		Data:      data,
	}

	select {
	case m.eventChan <- event:
		slog.Debug("Event published to channel", "event_id", event.ID, "event_type", event.Type.String())
	default:
		if m.metrics != nil {
			m.metrics.RecordEventDiscarded(ctx, event.Type.String())
		}

		slog.Warn("Event channel full, event dropped", "event_id", event.ID, "event_type", event.Type.String())
	}

	if m.metrics != nil {
		m.metrics.SetChannelDepth(len(m.eventChan))
	}
}

func (m *MessagePublisherManager) startWorker() {
	defer m.wg.Done()

	bgCtx := context.Background()

	for event := range m.eventChan {
		start := time.Now()
		// Bound each fan-out so one stuck provider cannot freeze the worker.
		ctx, cancel := context.WithTimeout(bgCtx, 10*time.Second)

		for _, provider := range m.providers {
			provider.PublishEvent(ctx, event)
		}

		cancel()

		if m.metrics != nil {
			m.metrics.RecordFanOutDuration(bgCtx, time.Since(start), event.Type.String())
			m.metrics.SetChannelDepth(len(m.eventChan))
		}
	}
}

// Shutdown stops accepting events and waits for the buffer to drain.
func (m *MessagePublisherManager) Shutdown() {
	close(m.eventChan)
	m.wg.Wait()
}
