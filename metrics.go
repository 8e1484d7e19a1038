package metricdp

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/metricdp/distance"
)

// Snapshot operations reported to MetricsCollector.RecordSnapshot.
const (
	SnapshotSave = "save"
	SnapshotLoad = "load"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the
// promcollector package provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordBuild is called after each BuildANN that actually built a forest.
	RecordBuild(metric distance.Metric, trees int, duration time.Duration, err error)

	// RecordPrivatize is called after each Privatize call. tokens is the
	// sequence length and perturbed the number of non-special positions.
	RecordPrivatize(tokens, perturbed int, duration time.Duration, err error)

	// RecordSnapshot is called after SaveIndex (op "save") and LoadIndex
	// (op "load") with the snapshot size in bytes.
	RecordSnapshot(op string, bytes int64, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordBuild(distance.Metric, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordPrivatize(int, int, time.Duration, error)         {}
func (NoopMetricsCollector) RecordSnapshot(string, int64, time.Duration, error)     {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	BuildCount          atomic.Int64
	BuildErrors         atomic.Int64
	BuildTotalNanos     atomic.Int64
	PrivatizeCount      atomic.Int64
	PrivatizeErrors     atomic.Int64
	PrivatizeTotalNanos atomic.Int64
	TokensTotal         atomic.Int64
	PerturbedTotal      atomic.Int64
	SnapshotSaves       atomic.Int64
	SnapshotLoads       atomic.Int64
	SnapshotErrors      atomic.Int64
	SnapshotBytes       atomic.Int64
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(_ distance.Metric, _ int, duration time.Duration, err error) {
	b.BuildCount.Add(1)
	b.BuildTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.BuildErrors.Add(1)
	}
}

// RecordPrivatize implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPrivatize(tokens, perturbed int, duration time.Duration, err error) {
	b.PrivatizeCount.Add(1)
	b.PrivatizeTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.PrivatizeErrors.Add(1)
		return
	}
	b.TokensTotal.Add(int64(tokens))
	b.PerturbedTotal.Add(int64(perturbed))
}

// RecordSnapshot implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSnapshot(op string, bytes int64, _ time.Duration, err error) {
	switch op {
	case SnapshotSave:
		b.SnapshotSaves.Add(1)
	case SnapshotLoad:
		b.SnapshotLoads.Add(1)
	}
	if err != nil {
		b.SnapshotErrors.Add(1)
		return
	}
	b.SnapshotBytes.Add(bytes)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		BuildCount:        b.BuildCount.Load(),
		BuildErrors:       b.BuildErrors.Load(),
		BuildAvgNanos:     avg(b.BuildTotalNanos.Load(), b.BuildCount.Load()),
		PrivatizeCount:    b.PrivatizeCount.Load(),
		PrivatizeErrors:   b.PrivatizeErrors.Load(),
		PrivatizeAvgNanos: avg(b.PrivatizeTotalNanos.Load(), b.PrivatizeCount.Load()),
		TokensTotal:       b.TokensTotal.Load(),
		PerturbedTotal:    b.PerturbedTotal.Load(),
		SnapshotSaves:     b.SnapshotSaves.Load(),
		SnapshotLoads:     b.SnapshotLoads.Load(),
		SnapshotErrors:    b.SnapshotErrors.Load(),
		SnapshotBytes:     b.SnapshotBytes.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	BuildCount        int64
	BuildErrors       int64
	BuildAvgNanos     int64
	PrivatizeCount    int64
	PrivatizeErrors   int64
	PrivatizeAvgNanos int64
	TokensTotal       int64
	PerturbedTotal    int64
	SnapshotSaves     int64
	SnapshotLoads     int64
	SnapshotErrors    int64
	SnapshotBytes     int64
}
