// Package observability provides OpenTelemetry metrics (Prometheus exporter), tracing and log context for HireScope.
package observability

import (
	"github.com/hirescope/hirescope/internal/datatypes"
)

// Metric names (Prometheus / OpenTelemetry).
const (
	MetricNameRequests            = "hirescope_http_requests_total"
	MetricNameRequestDuration     = "hirescope_http_request_duration_seconds"
	MetricNameRequestBodyTooLarge = "hirescope_http_request_body_too_large_total"
	MetricNameQueries             = "hirescope_rag_queries_total"
	MetricNameLLMCalls            = "hirescope_llm_calls_total"
	MetricNameLLMDuration         = "hirescope_llm_call_duration_seconds"
	MetricNameIngestedFiles       = "hirescope_ingested_files_total"
	MetricNameCacheLookups        = "hirescope_embedding_cache_lookups_total"
	MetricNameCacheEntries        = "hirescope_embedding_cache_entries"
	MetricNameEventsDiscarded     = "hirescope_candidate_events_dropped_total"
	MetricNameFanOutDuration      = "hirescope_candidate_event_delivery_duration_seconds"
	MetricNameEventChannelDepth   = "hirescope_candidate_event_backlog"
	MetricNameIngestJobsPending   = "hirescope_ingest_jobs_pending"
)

// Attribute keys.
const (
	AttrEventType = "event_type"
	AttrOutcome   = "outcome"
	AttrRelevance = "relevance"
	AttrDegraded  = "degraded"
	AttrOperation = "operation"
	AttrStatus    = "status"
	AttrCache     = "cache"
	AttrResult    = "result"
)

// AllowedQueryOutcomes for hirescope_rag_queries_total.
var AllowedQueryOutcomes = map[string]bool{
	"greeting":    true,
	"empty_store": true,
	"not_found":   true,
	"answered":    true,
	"error":       true,
}

// AllowedLLMOperations for hirescope_llm_calls_total and hirescope_llm_call_duration_seconds.
var AllowedLLMOperations = map[string]bool{
	"answer":    true,
	"classify":  true,
	"summarize": true,
	"embed":     true,
}

// AllowedIngestStatuses for hirescope_ingested_files_total.
var AllowedIngestStatuses = map[string]bool{
	"stored":    true,
	"duplicate": true,
	"error":     true,
	"queued":    true,
}

// AllowedCacheNames for the embedding cache metrics.
var AllowedCacheNames = map[string]bool{
	"query_embedding": true,
}

// NormalizeEventType returns eventType if allowed, otherwise "unknown".
func NormalizeEventType(eventType string) string {
	if datatypes.IsValidEventType(eventType) {
		return eventType
	}

	return "unknown"
}

// NormalizeReason returns reason if in allowed, otherwise "other".
func NormalizeReason(reason string, allowed map[string]bool) string {
	if allowed[reason] {
		return reason
	}

	return "other"
}

// NormalizeCacheName returns name if it is a known cache, otherwise "other".
func NormalizeCacheName(name string) string {
	return NormalizeReason(name, AllowedCacheNames)
}

// NormalizeStatusClass maps an HTTP status code to 2xx/3xx/4xx/5xx.
func NormalizeStatusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
