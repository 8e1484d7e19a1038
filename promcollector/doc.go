// Package promcollector exports metricdp operational metrics to Prometheus.
//
//	c := promcollector.New(prometheus.DefaultRegisterer)
//	p, _ := metricdp.New(store, metricdp.WithMetricsCollector(c))
//	http.Handle("/metrics", promhttp.Handler())
//
// Only counts, sizes and latencies are exported. Token ids and privatized
// output never reach a label.
package promcollector
