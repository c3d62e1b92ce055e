package observability

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Cache lookup results.
const (
	CacheResultHit  = "hit"
	CacheResultMiss = "miss"
)

// CacheMetrics tracks the embedding caches that sit in front of the provider.
// Each lookup is counted by result, and every registered cache reports how many vectors it holds.
type CacheMetrics interface {
	RecordHit(ctx context.Context, cacheName string)
	RecordMiss(ctx context.Context, cacheName string)
	ObserveEntries(cacheName string, entries func() int)
}

type cacheMetrics struct {
	lookups metric.Int64Counter

	mu      sync.Mutex
	entries map[string]func() int
}

// NewCacheMetrics creates CacheMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewCacheMetrics(meter metric.Meter) (CacheMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	lookups, err := meter.Int64Counter(
		MetricNameCacheLookups,
		metric.WithDescription("Embedding cache lookups for résumé queries. A miss costs one provider embedding call. "+
			"Labels: cache, result=hit|miss."),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create embedding cache lookups counter: %w", err)
	}

	m := &cacheMetrics{lookups: lookups, entries: make(map[string]func() int)}

	_, err = meter.Int64ObservableGauge(
		MetricNameCacheEntries,
		metric.WithDescription("Query embeddings currently held per cache"),
		metric.WithUnit("{vector}"),
		metric.WithInt64Callback(m.observeEntries),
	)
	if err != nil {
		return nil, fmt.Errorf("create embedding cache entries gauge: %w", err)
	}

	return m, nil
}

func (c *cacheMetrics) observeEntries(_ context.Context, o metric.Int64Observer) error {
	c.mu.Lock()
	names := make([]string, 0, len(c.entries))
	sizes := make(map[string]func() int, len(c.entries))
	for name, fn := range c.entries {
		names = append(names, name)
		sizes[name] = fn
	}
	c.mu.Unlock()

	sort.Strings(names)

	for _, name := range names {
		o.Observe(int64(sizes[name]()), metric.WithAttributes(attribute.String(AttrCache, name)))
	}

	return nil
}

func (c *cacheMetrics) record(ctx context.Context, cacheName, result string) {
	c.lookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrCache, NormalizeCacheName(cacheName)),
		attribute.String(AttrResult, result),
	))
}

func (c *cacheMetrics) RecordHit(ctx context.Context, cacheName string) {
	c.record(ctx, cacheName, CacheResultHit)
}

func (c *cacheMetrics) RecordMiss(ctx context.Context, cacheName string) {
	c.record(ctx, cacheName, CacheResultMiss)
}

// ObserveEntries registers a size function reported on every collection.
// Registering the same name again replaces the previous function.
func (c *cacheMetrics) ObserveEntries(cacheName string, entries func() int) {
	if entries == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[NormalizeCacheName(cacheName)] = entries
}
