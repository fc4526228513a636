package app

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wlfogle/mediafetch/internal/domain"
)

// Metrics bundles Prometheus collectors for the acquisition pipeline.
// All helpers are nil-safe so wiring metrics stays optional.
type Metrics struct {
	Registry        *prometheus.Registry
	ItemsTotal      *prometheus.CounterVec
	DiscoveriesUsed prometheus.Counter
	SourcesTried    prometheus.Counter
	SearchRequests  *prometheus.CounterVec
	ItemDuration    prometheus.Histogram
	ProbesTotal     *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	items := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediafetch_items_total",
			Help: "Completed items by terminal outcome.",
		},
		[]string{"outcome"},
	)
	discoveries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mediafetch_discoveries_used_total",
			Help: "Items whose discovery phase yielded a reachable source.",
		},
	)
	sourcesTried := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mediafetch_sources_tried_total",
			Help: "Distinct sources tried across all items.",
		},
	)
	searchRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediafetch_search_requests_total",
			Help: "Search backend requests by backend name.",
		},
		[]string{"backend"},
	)
	itemDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mediafetch_item_duration_seconds",
			Help:    "Wall time from first attempt to terminal state per item.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)
	probes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediafetch_probes_total",
			Help: "Source probes by result.",
		},
		[]string{"result"},
	)

	registry.MustRegister(items, discoveries, sourcesTried, searchRequests, itemDuration, probes)

	return &Metrics{
		Registry:        registry,
		ItemsTotal:      items,
		DiscoveriesUsed: discoveries,
		SourcesTried:    sourcesTried,
		SearchRequests:  searchRequests,
		ItemDuration:    itemDuration,
		ProbesTotal:     probes,
	}
}

// IncItem counts a completed item by outcome label.
func (m *Metrics) IncItem(outcome string) {
	if m == nil {
		return
	}
	m.ItemsTotal.WithLabelValues(outcome).Inc()
}

// IncDiscoveryUsed counts a discovery phase that yielded a reachable source.
func (m *Metrics) IncDiscoveryUsed() {
	if m == nil {
		return
	}
	m.DiscoveriesUsed.Inc()
}

// IncSourceTried counts one distinct source entering its attempt loop.
func (m *Metrics) IncSourceTried() {
	if m == nil {
		return
	}
	m.SourcesTried.Inc()
}

// IncSearch counts one search backend request.
func (m *Metrics) IncSearch(backend string) {
	if m == nil {
		return
	}
	m.SearchRequests.WithLabelValues(backend).Inc()
}

// ObserveItemDuration records how long an item took to reach a terminal state.
func (m *Metrics) ObserveItemDuration(seconds float64) {
	if m == nil {
		return
	}
	m.ItemDuration.Observe(seconds)
}

// IncProbe counts a probe by result label.
func (m *Metrics) IncProbe(result string) {
	if m == nil {
		return
	}
	m.ProbesTotal.WithLabelValues(result).Inc()
}

// instrumentedBackend counts requests around an inner search backend.
type instrumentedBackend struct {
	inner   domain.SearchBackend
	metrics *Metrics
}

// InstrumentBackends wraps each backend so its requests show up in the
// search request counter.
func InstrumentBackends(backends []domain.SearchBackend, metrics *Metrics) []domain.SearchBackend {
	wrapped := make([]domain.SearchBackend, len(backends))
	for i, backend := range backends {
		wrapped[i] = &instrumentedBackend{inner: backend, metrics: metrics}
	}
	return wrapped
}

func (b *instrumentedBackend) Name() string             { return b.inner.Name() }
func (b *instrumentedBackend) Kind() domain.BackendKind { return b.inner.Kind() }

func (b *instrumentedBackend) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	b.metrics.IncSearch(b.inner.Name())
	return b.inner.Search(ctx, query)
}
