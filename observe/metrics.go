package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records cache activity.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic; recording is best-effort.
type Metrics interface {
	// RecordLookup records a cache lookup for a category and whether it
	// hit.
	RecordLookup(ctx context.Context, category string, hit bool)

	// RecordEviction records an entry eviction for a category.
	RecordEviction(ctx context.Context, category string)

	// RecordRefresh records a background stale-while-revalidate refresh
	// outcome.
	RecordRefresh(ctx context.Context, category string, err error)

	// RecordPrefetch records an opportunistic prefetch attempt.
	RecordPrefetch(ctx context.Context, category string)

	// RecordFetch records a primary-path network fetch with its duration
	// and error status.
	RecordFetch(ctx context.Context, category string, duration time.Duration, err error)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	hits         metric.Int64Counter
	misses       metric.Int64Counter
	evictions    metric.Int64Counter
	refreshes    metric.Int64Counter
	prefetches   metric.Int64Counter
	fetchErrors  metric.Int64Counter
	durationHist metric.Float64Histogram
}

// NewMetrics creates a Metrics instance recording through the given
// meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	hits, err := meter.Int64Counter(
		"content.cache.hits",
		metric.WithDescription("Cache lookups served from the store"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	misses, err := meter.Int64Counter(
		"content.cache.misses",
		metric.WithDescription("Cache lookups that fell through to fetch"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	evictions, err := meter.Int64Counter(
		"content.cache.evictions",
		metric.WithDescription("Entries evicted to satisfy capacity ceilings"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}

	refreshes, err := meter.Int64Counter(
		"content.cache.refreshes",
		metric.WithDescription("Background stale-while-revalidate refreshes"),
		metric.WithUnit("{refresh}"),
	)
	if err != nil {
		return nil, err
	}

	prefetches, err := meter.Int64Counter(
		"content.cache.prefetches",
		metric.WithDescription("Opportunistic related-key prefetches"),
		metric.WithUnit("{prefetch}"),
	)
	if err != nil {
		return nil, err
	}

	fetchErrors, err := meter.Int64Counter(
		"content.cache.fetch.errors",
		metric.WithDescription("Primary-path fetch failures after retries"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"content.cache.fetch.duration_ms",
		metric.WithDescription("Primary-path fetch duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		hits:         hits,
		misses:       misses,
		evictions:    evictions,
		refreshes:    refreshes,
		prefetches:   prefetches,
		fetchErrors:  fetchErrors,
		durationHist: durationHist,
	}, nil
}

func categoryAttr(category string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("content.category", category))
}

func (m *metricsImpl) RecordLookup(ctx context.Context, category string, hit bool) {
	if hit {
		m.hits.Add(ctx, 1, categoryAttr(category))
	} else {
		m.misses.Add(ctx, 1, categoryAttr(category))
	}
}

func (m *metricsImpl) RecordEviction(ctx context.Context, category string) {
	m.evictions.Add(ctx, 1, categoryAttr(category))
}

func (m *metricsImpl) RecordRefresh(ctx context.Context, category string, err error) {
	opt := metric.WithAttributes(
		attribute.String("content.category", category),
		attribute.Bool("error", err != nil),
	)
	m.refreshes.Add(ctx, 1, opt)
}

func (m *metricsImpl) RecordPrefetch(ctx context.Context, category string) {
	m.prefetches.Add(ctx, 1, categoryAttr(category))
}

func (m *metricsImpl) RecordFetch(ctx context.Context, category string, duration time.Duration, err error) {
	if err != nil {
		m.fetchErrors.Add(ctx, 1, categoryAttr(category))
	}
	m.durationHist.Record(ctx, float64(duration.Milliseconds()), categoryAttr(category))
}

// noopMetrics records nothing.
type noopMetrics struct{}

func (noopMetrics) RecordLookup(context.Context, string, bool)                {}
func (noopMetrics) RecordEviction(context.Context, string)                    {}
func (noopMetrics) RecordRefresh(context.Context, string, error)              {}
func (noopMetrics) RecordPrefetch(context.Context, string)                    {}
func (noopMetrics) RecordFetch(context.Context, string, time.Duration, error) {}

// NewNoopMetrics returns a Metrics that records nothing.
func NewNoopMetrics() Metrics {
	return noopMetrics{}
}

var _ Metrics = (*metricsImpl)(nil)
var _ Metrics = noopMetrics{}
