package promcollector

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/metricdp"
	"github.com/hupe1980/metricdp/distance"
)

const namespace = "metricdp"

// Collector implements metricdp.MetricsCollector on top of Prometheus
// counters and histograms.
type Collector struct {
	opLatency  *prometheus.HistogramVec
	builds     *prometheus.CounterVec
	privatized *prometheus.CounterVec
	tokens     prometheus.Counter
	perturbed  prometheus.Counter
	snapshots  *prometheus.CounterVec
	snapBytes  *prometheus.CounterVec
}

var _ metricdp.MetricsCollector = (*Collector)(nil)

// New creates a Collector and registers it with reg. A nil reg skips
// registration.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_latency_seconds",
			Help:      "Latency of metricdp operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "status"}),
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_builds_total",
			Help:      "Forest builds by metric and status",
		}, []string{"metric", "status"}),
		privatized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "privatize_calls_total",
			Help:      "Privatize calls by status",
		}, []string{"status"}),
		tokens: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_total",
			Help:      "Tokens in successfully privatized sequences",
		}),
		perturbed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "perturbed_tokens_total",
			Help:      "Non-special tokens replaced through the noisy nearest neighbor",
		}),
		snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_total",
			Help:      "Index snapshot operations by op and status",
		}, []string{"op", "status"}),
		snapBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_bytes_total",
			Help:      "Bytes written or read by index snapshots",
		}, []string{"op"}),
	}

	if reg != nil {
		reg.MustRegister(c.Collectors()...)
	}
	return c
}

// Collectors returns the underlying Prometheus collectors.
func (c *Collector) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.opLatency, c.builds, c.privatized,
		c.tokens, c.perturbed, c.snapshots, c.snapBytes,
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordBuild implements metricdp.MetricsCollector.
func (c *Collector) RecordBuild(m distance.Metric, _ int, d time.Duration, err error) {
	s := status(err)
	c.opLatency.WithLabelValues("build", s).Observe(d.Seconds())
	c.builds.WithLabelValues(m.String(), s).Inc()
}

// RecordPrivatize implements metricdp.MetricsCollector.
func (c *Collector) RecordPrivatize(tokens, perturbed int, d time.Duration, err error) {
	s := status(err)
	c.opLatency.WithLabelValues("privatize", s).Observe(d.Seconds())
	c.privatized.WithLabelValues(s).Inc()
	if err != nil {
		return
	}
	c.tokens.Add(float64(tokens))
	c.perturbed.Add(float64(perturbed))
}

// RecordSnapshot implements metricdp.MetricsCollector.
func (c *Collector) RecordSnapshot(op string, bytes int64, d time.Duration, err error) {
	s := status(err)
	c.opLatency.WithLabelValues("snapshot_"+op, s).Observe(d.Seconds())
	c.snapshots.WithLabelValues(op, s).Inc()
	if err == nil {
		c.snapBytes.WithLabelValues(op).Add(float64(bytes))
	}
}
