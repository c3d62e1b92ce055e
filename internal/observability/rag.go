package observability

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RAGMetrics records query outcomes, LLM calls and ingestion results.
type RAGMetrics interface {
	RecordQuery(ctx context.Context, outcome, relevance string, degraded bool)
	RecordLLMCall(ctx context.Context, operation string, err error, duration time.Duration)
	RecordIngestedFile(ctx context.Context, status string)
}

type ragMetrics struct {
	queries     metric.Int64Counter
	llmCalls    metric.Int64Counter
	llmDuration metric.Float64Histogram
	ingested    metric.Int64Counter
}

// NewRAGMetrics creates RAGMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewRAGMetrics(meter metric.Meter) (RAGMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	queries, err := meter.Int64Counter(
		MetricNameQueries,
		metric.WithDescription("RAG queries by outcome (greeting, empty_store, not_found, answered, error), "+
			"relevance verdict and whether retrieval failed"),
	)
	if err != nil {
		return nil, fmt.Errorf("create queries counter: %w", err)
	}

	llmCalls, err := meter.Int64Counter(
		MetricNameLLMCalls,
		metric.WithDescription("LLM provider calls by operation and status"),
	)
	if err != nil {
		return nil, fmt.Errorf("create llm calls counter: %w", err)
	}

	llmDuration, err := meter.Float64Histogram(
		MetricNameLLMDuration,
		metric.WithDescription("LLM provider call duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create llm duration histogram: %w", err)
	}

	ingested, err := meter.Int64Counter(
		MetricNameIngestedFiles,
		metric.WithDescription("Uploaded résumé files by ingestion status"),
	)
	if err != nil {
		return nil, fmt.Errorf("create ingested files counter: %w", err)
	}

	return &ragMetrics{queries: queries, llmCalls: llmCalls, llmDuration: llmDuration, ingested: ingested}, nil
}

func (m *ragMetrics) RecordQuery(ctx context.Context, outcome, relevance string, degraded bool) {
	m.queries.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrOutcome, NormalizeReason(outcome, AllowedQueryOutcomes)),
		attribute.String(AttrRelevance, relevance),
		attribute.String(AttrDegraded, strconv.FormatBool(degraded)),
	))
}

func (m *ragMetrics) RecordLLMCall(ctx context.Context, operation string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}

	attrs := metric.WithAttributes(
		attribute.String(AttrOperation, NormalizeReason(operation, AllowedLLMOperations)),
		attribute.String(AttrStatus, status),
	)
	m.llmCalls.Add(ctx, 1, attrs)
	m.llmDuration.Record(ctx, duration.Seconds(), attrs)
}

func (m *ragMetrics) RecordIngestedFile(ctx context.Context, status string) {
	m.ingested.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrStatus, NormalizeReason(status, AllowedIngestStatuses)),
	))
}
