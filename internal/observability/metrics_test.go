package observability

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEventType(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"known candidate.created", "candidate.created", "candidate.created"},
		{"known candidate.deleted", "candidate.deleted", "candidate.deleted"},
		{"unknown empty", "", "unknown"},
		{"unknown random", "invoice.created", "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeEventType(tt.input))
		})
	}
}

func TestNormalizeReason(t *testing.T) {
	assert.Equal(t, "answered", NormalizeReason("answered", AllowedQueryOutcomes))
	assert.Equal(t, "other", NormalizeReason("exploded", AllowedQueryOutcomes))
	assert.Equal(t, "summarize", NormalizeReason("summarize", AllowedLLMOperations))
	assert.Equal(t, "query_embedding", NormalizeCacheName("query_embedding"))
	assert.Equal(t, "other", NormalizeCacheName("invoice_list"))
}

func TestNormalizeStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", NormalizeStatusClass(http.StatusOK))
	assert.Equal(t, "3xx", NormalizeStatusClass(http.StatusFound))
	assert.Equal(t, "4xx", NormalizeStatusClass(http.StatusNotFound))
	assert.Equal(t, "5xx", NormalizeStatusClass(http.StatusBadGateway))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestTraceContextHandler_addsRequestID(t *testing.T) {
	var buf bytes.Buffer

	logger := slog.New(NewTraceContextHandler(slog.NewTextHandler(&buf, nil)))
	ctx := context.WithValue(context.Background(), RequestIDKey, "req-123")

	logger.InfoContext(ctx, "hello")

	assert.Contains(t, buf.String(), "request_id=req-123")
	assert.NotContains(t, buf.String(), "trace_id")
}

func TestNewMetrics_nilMeter(t *testing.T) {
	m, err := NewMetrics(nil)
	require.NoError(t, err)
	assert.Nil(t, m.HTTP)
	assert.Nil(t, m.RAG)
	assert.Nil(t, m.Events)
	assert.Nil(t, m.Cache)
}

func TestNewMeterProvider_exposesMetrics(t *testing.T) {
	ctx := context.Background()

	provider, handler, metrics, err := NewMeterProvider(ctx, MeterProviderConfig{})
	require.NoError(t, err)

	t.Cleanup(func() { _ = provider.Shutdown(ctx) })

	metrics.HTTP.RecordRequest(ctx, http.MethodPost, "/v1/query", http.StatusOK, 120*time.Millisecond)
	metrics.RAG.RecordQuery(ctx, "answered", "yes", false)
	metrics.RAG.RecordLLMCall(ctx, "answer", errors.New("boom"), time.Second)
	metrics.RAG.RecordIngestedFile(ctx, "duplicate")
	metrics.Cache.RecordHit(ctx, "query_embedding")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	out := string(body)
	assert.Contains(t, out, "hirescope_http_requests_total")
	assert.Contains(t, out, "hirescope_rag_queries_total")
	assert.Contains(t, out, `status="error"`)
	assert.Contains(t, out, `status="duplicate"`)
	assert.Contains(t, out, "hirescope_embedding_cache_lookups_total")
}

func TestNewMeterProvider_embeddingCacheAndCandidateEvents(t *testing.T) {
	ctx := context.Background()

	provider, handler, metrics, err := NewMeterProvider(ctx, MeterProviderConfig{})
	require.NoError(t, err)

	t.Cleanup(func() { _ = provider.Shutdown(ctx) })

	metrics.Cache.RecordHit(ctx, "query_embedding")
	metrics.Cache.RecordMiss(ctx, "query_embedding")
	metrics.Cache.RecordMiss(ctx, "invoice_list")
	metrics.Cache.ObserveEntries("query_embedding", func() int { return 7 })

	metrics.Events.RecordEventDiscarded(ctx, "candidate.created")
	metrics.Events.RecordFanOutDuration(ctx, 20*time.Millisecond, "candidate.deleted")
	metrics.Events.SetChannelDepth(3)
	metrics.Events.SetIngestBacklog(11)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	out := string(body)

	t.Run("cache lookups are labelled by result", func(t *testing.T) {
		assert.Regexp(t, `hirescope_embedding_cache_lookups_total\{[^}]*cache="query_embedding"[^}]*result="hit"[^}]*\} 1`, out)
		assert.Regexp(t, `hirescope_embedding_cache_lookups_total\{[^}]*cache="query_embedding"[^}]*result="miss"[^}]*\} 1`, out)
		assert.Regexp(t, `hirescope_embedding_cache_lookups_total\{[^}]*cache="other"[^}]*result="miss"[^}]*\} 1`, out)
	})

	t.Run("cache size is observed", func(t *testing.T) {
		assert.Regexp(t, `hirescope_embedding_cache_entries\{[^}]*cache="query_embedding"[^}]*\} 7`, out)
	})

	t.Run("candidate event gauges", func(t *testing.T) {
		assert.Contains(t, out, "hirescope_candidate_events_dropped_total")
		assert.Contains(t, out, `event_type="candidate.created"`)
		assert.Contains(t, out, "hirescope_candidate_event_delivery_duration_seconds")
		assert.Regexp(t, `hirescope_candidate_event_backlog(\{[^}]*\})? 3`, out)
		assert.Regexp(t, `hirescope_ingest_jobs_pending(\{[^}]*\})? 11`, out)
	})
}
