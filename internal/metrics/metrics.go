// Package metrics wires the engine's operation counters into Prometheus,
// exposed at GET /metrics. It is additive to the /stats JSON endpoint,
// which it leaves untouched.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dreamware/kvstore/internal/partition"
)

// PartitionStatsSource is the subset of *engine.Engine that the
// collector needs. Kept as an interface so this package does not import
// engine directly and tests can supply a fake source.
type PartitionStatsSource interface {
	PartitionStats() []partition.Stats
}

// Collector bridges the engine's cumulative per-partition counters into
// Prometheus's pull model. Every scrape of /metrics calls back into the
// engine for a fresh snapshot instead of tracking a local copy, so the
// exported counters can never drift from the partitions' own counters.
type Collector struct {
	registry *prometheus.Registry
	source   PartitionStatsSource

	opsDesc    *prometheus.Desc
	evictDesc  *prometheus.Desc
	durationFn *prometheus.HistogramVec
}

// New builds a Collector that pulls from source on every scrape, and
// registers a push-side histogram for per-call operation latency. The
// HTTP adapter observes into the histogram directly; there is no
// cumulative counter in the core to pull it from.
func New(source PartitionStatsSource) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		registry: reg,
		source:   source,
		opsDesc: prometheus.NewDesc(
			"kvstore_operations_total",
			"Count of KV operations by type and partition.",
			[]string{"op", "partition"}, nil,
		),
		evictDesc: prometheus.NewDesc(
			"kvstore_cache_evictions_total",
			"Count of LRU cache evictions by partition.",
			[]string{"partition"}, nil,
		),
		durationFn: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kvstore_operation_duration_seconds",
			Help:    "Latency of KV operations observed at the HTTP adapter, by type.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
	}

	reg.MustRegister(c, c.durationFn)
	return c
}

// ObserveDuration records one operation's latency for the given op name
// ("get", "put", "remove", "list_keys").
func (c *Collector) ObserveDuration(op string, seconds float64) {
	c.durationFn.WithLabelValues(op).Observe(seconds)
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.opsDesc
	ch <- c.evictDesc
}

// Collect implements prometheus.Collector, pulling a fresh snapshot from
// the engine on every scrape.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for i, st := range c.source.PartitionStats() {
		p := strconv.Itoa(i)
		ch <- prometheus.MustNewConstMetric(c.opsDesc, prometheus.CounterValue, float64(st.Gets), "get", p)
		ch <- prometheus.MustNewConstMetric(c.opsDesc, prometheus.CounterValue, float64(st.Puts), "put", p)
		ch <- prometheus.MustNewConstMetric(c.opsDesc, prometheus.CounterValue, float64(st.Removes), "remove", p)
		ch <- prometheus.MustNewConstMetric(c.evictDesc, prometheus.CounterValue, float64(st.Evictions), p)
	}
}

// Handler returns the http.Handler to mount at /metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
