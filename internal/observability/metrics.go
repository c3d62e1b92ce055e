package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	prometheusexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
)

const (
	meterScope           = "github.com/hirescope/hirescope/internal/observability"
	defaultServiceName   = "hirescope-api"
	cardinalityLimit     = 2000
	metricExportInterval = 60 * time.Second
)

// MetricsExporterOTLP is the OTEL_METRICS_EXPORTER value that enables OTLP push.
const MetricsExporterOTLP = "otlp"

// durationBoundaries are second-based buckets; LLM calls routinely take several seconds.
var durationBoundaries = []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// MeterProviderShutdown is the subset of the SDK MeterProvider needed for shutdown.
type MeterProviderShutdown interface {
	Shutdown(ctx context.Context) error
}

// MeterProviderConfig holds configuration for creating the MeterProvider.
type MeterProviderConfig struct {
	// ServiceName is used in the resource (default: hirescope-api).
	ServiceName string
	// OTLPPush also pushes metrics over OTLP/HTTP every minute. The exporter reads
	// OTEL_EXPORTER_OTLP_ENDPOINT from the environment.
	OTLPPush bool
}

// Metrics holds every metric collector. Components receive the field they need; a nil
// *Metrics or nil field means metrics are disabled.
type Metrics struct {
	HTTP   HTTPMetrics
	RAG    RAGMetrics
	Events EventMetrics
	Cache  CacheMetrics
}

// NewMeterProvider creates a MeterProvider with a Prometheus exporter on a private registry and returns
// the provider, the /metrics handler and the collectors. Caller must call provider.Shutdown on exit.
func NewMeterProvider(ctx context.Context, cfg MeterProviderConfig) (MeterProviderShutdown, http.Handler, *Metrics, error) {
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = defaultServiceName
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
	)

	reg := prometheus.NewRegistry()

	exporter, err := prometheusexporter.New(prometheusexporter.WithRegisterer(reg))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	opts := []sdkmetric.Option{
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
		sdkmetric.WithCardinalityLimit(cardinalityLimit),
		sdkmetric.WithView(sdkmetric.NewView(
			sdkmetric.Instrument{Name: "hirescope_*_duration_seconds"},
			sdkmetric.Stream{Aggregation: sdkmetric.AggregationExplicitBucketHistogram{Boundaries: durationBoundaries}},
		)),
	}

	if cfg.OTLPPush {
		otlpExporter, err := otlpmetrichttp.New(ctx)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("create OTLP metric exporter: %w", err)
		}

		opts = append(opts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(otlpExporter,
			sdkmetric.WithInterval(metricExportInterval))))
	}

	mp := sdkmetric.NewMeterProvider(opts...)

	metrics, err := NewMetrics(mp.Meter(meterScope))
	if err != nil {
		return nil, nil, nil, err
	}

	return mp, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics, nil
}

// NewMetrics creates all collectors from meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	httpMetrics, err := NewHTTPMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("http metrics: %w", err)
	}

	ragMetrics, err := NewRAGMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("rag metrics: %w", err)
	}

	events, err := NewEventMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("event metrics: %w", err)
	}

	cache, err := NewCacheMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("cache metrics: %w", err)
	}

	return &Metrics{HTTP: httpMetrics, RAG: ragMetrics, Events: events, Cache: cache}, nil
}

// HTTPMetrics records request counts, latency and rejected bodies.
type HTTPMetrics interface {
	RecordRequest(ctx context.Context, method, route string, status int, duration time.Duration)
	RecordRequestBodyTooLarge(ctx context.Context)
}

type httpMetrics struct {
	requests        metric.Int64Counter
	requestDuration metric.Float64Histogram
	bodyTooLarge    metric.Int64Counter
}

// NewHTTPMetrics creates HTTPMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewHTTPMetrics(meter metric.Meter) (HTTPMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	requests, err := meter.Int64Counter(
		MetricNameRequests,
		metric.WithDescription("Total HTTP requests by method, route and status class"),
	)
	if err != nil {
		return nil, fmt.Errorf("create requests counter: %w", err)
	}

	requestDuration, err := meter.Float64Histogram(
		MetricNameRequestDuration,
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create request duration histogram: %w", err)
	}

	bodyTooLarge, err := meter.Int64Counter(
		MetricNameRequestBodyTooLarge,
		metric.WithDescription("Requests rejected because the body exceeded the configured limit (413)"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create request body too large counter: %w", err)
	}

	return &httpMetrics{requests: requests, requestDuration: requestDuration, bodyTooLarge: bodyTooLarge}, nil
}

func (m *httpMetrics) RecordRequest(ctx context.Context, method, route string, status int, duration time.Duration) {
	m.requests.Add(ctx, 1, metric.WithAttributeSet(attribute.NewSet(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.String("status_class", NormalizeStatusClass(status)),
	)))
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributeSet(attribute.NewSet(
		attribute.String("method", method),
		attribute.String("route", route),
	)))
}

func (m *httpMetrics) RecordRequestBodyTooLarge(ctx context.Context) {
	m.bodyTooLarge.Add(ctx, 1)
}
