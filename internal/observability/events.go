package observability

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// EventMetrics covers the candidate.created / candidate.deleted pipeline:
// in-process fan-out to publishers and the backlog of résumé ingestion jobs behind it.
type EventMetrics interface {
	RecordEventDiscarded(ctx context.Context, eventType string)
	RecordFanOutDuration(ctx context.Context, duration time.Duration, eventType string)
	SetChannelDepth(depth int)
	SetIngestBacklog(pending int)
}

type eventMetrics struct {
	dropped  metric.Int64Counter
	delivery metric.Float64Histogram

	backlog       atomic.Int64
	ingestPending atomic.Int64
}

// NewEventMetrics creates EventMetrics. Both gauges are read in a single callback.
// Returns (nil, nil) when meter is nil (metrics disabled).
func NewEventMetrics(meter metric.Meter) (EventMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	dropped, err := meter.Int64Counter(
		MetricNameEventsDiscarded,
		metric.WithDescription("Candidate events dropped before reaching NATS or the log publisher because the backlog was full"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create candidate events dropped counter: %w", err)
	}

	delivery, err := meter.Float64Histogram(
		MetricNameFanOutDuration,
		metric.WithDescription("Seconds spent delivering one candidate event to every registered publisher"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create candidate event delivery histogram: %w", err)
	}

	m := &eventMetrics{dropped: dropped, delivery: delivery}

	backlogGauge, err := meter.Int64ObservableGauge(
		MetricNameEventChannelDepth,
		metric.WithDescription("Candidate events queued in process and not yet delivered"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create candidate event backlog gauge: %w", err)
	}

	pendingGauge, err := meter.Int64ObservableGauge(
		MetricNameIngestJobsPending,
		metric.WithDescription("Résumé ingestion jobs waiting on the ingest queue (available, retryable or scheduled)"),
		metric.WithUnit("{job}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create ingest jobs pending gauge: %w", err)
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(backlogGauge, m.backlog.Load())
		o.ObserveInt64(pendingGauge, m.ingestPending.Load())

		return nil
	}, backlogGauge, pendingGauge)
	if err != nil {
		return nil, fmt.Errorf("register candidate event gauges: %w", err)
	}

	return m, nil
}

func eventTypeAttr(eventType string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String(AttrEventType, NormalizeEventType(eventType)))
}

func (e *eventMetrics) RecordEventDiscarded(ctx context.Context, eventType string) {
	e.dropped.Add(ctx, 1, eventTypeAttr(eventType))
}

func (e *eventMetrics) RecordFanOutDuration(ctx context.Context, duration time.Duration, eventType string) {
	e.delivery.Record(ctx, duration.Seconds(), eventTypeAttr(eventType))
}

func (e *eventMetrics) SetChannelDepth(depth int) {
	e.backlog.Store(int64(depth))
}

func (e *eventMetrics) SetIngestBacklog(pending int) {
	e.ingestPending.Store(int64(pending))
}
