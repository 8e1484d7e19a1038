package metricdp

import (
	"log/slog"

	"github.com/hupe1980/metricdp/codec"
	"github.com/hupe1980/metricdp/noise"
	"github.com/hupe1980/metricdp/persistence"
	"github.com/hupe1980/metricdp/resource"
)

// DefaultIndexCacheSize is the number of built forests kept for reuse.
const DefaultIndexCacheSize = 4

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	seed             uint64
	seeded           bool
	sampler          noise.Sampler
	exactL1          bool
	minCandidateID   int
	indexCacheSize   int
	resources        *resource.Controller
	codec            codec.Codec
	compression      persistence.Compression
}

// Option configures a Privatizer.
type Option func(*options)

// WithLogger configures structured logging.
// Pass nil to disable logging.
//
//	logger := metricdp.NewJSONLogger(slog.LevelInfo)
//	p, _ := metricdp.New(store, metricdp.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector.
// Pass nil to disable metrics collection.
//
//	metrics := &metricdp.BasicMetricsCollector{}
//	p, _ := metricdp.New(store, metricdp.WithMetricsCollector(metrics))
//	// ... use p ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithSeed makes index builds and noise reproducible.
//
// Seeded noise is predictable by anyone who knows the seed, so this is meant
// for tests and experiments, never for releasing privatized data.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
		o.seeded = true
	}
}

// WithSampler replaces the metric-dependent default noise sampler.
func WithSampler(s noise.Sampler) Option {
	return func(o *options) {
		o.sampler = s
	}
}

// WithExactL1Noise uses i.i.d. Laplace noise, which is exactly metric-DP for
// L1, when the index is built with MetricL1. Other metrics are unaffected.
func WithExactL1Noise() Option {
	return func(o *options) {
		o.exactL1 = true
	}
}

// WithMinCandidateID restricts replacements to tokens with id >= minID.
// Lower ids can still be privatized and passed through as special tokens;
// they are just never chosen as replacements.
func WithMinCandidateID(minID int) Option {
	return func(o *options) {
		o.minCandidateID = minID
	}
}

// WithIndexCacheSize sets how many built forests are kept for reuse by
// BuildANN. Values < 1 use DefaultIndexCacheSize.
func WithIndexCacheSize(n int) Option {
	return func(o *options) {
		o.indexCacheSize = n
	}
}

// WithResourceController bounds build memory, worker fan-out, batch
// throughput and snapshot IO.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.resources = rc
	}
}

// WithCodec configures the codec used for snapshot metadata.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCompression configures the compression of snapshot bodies.
func WithCompression(c persistence.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            codec.Default,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		indexCacheSize:   DefaultIndexCacheSize,
		compression:      persistence.CompressionNone,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.indexCacheSize < 1 {
		o.indexCacheSize = DefaultIndexCacheSize
	}
	return o
}

// BuildOption configures a single BuildANN call.
type BuildOption func(*buildOptions)

type buildOptions struct {
	leafSize           int
	searchK            int
	twoMeansIterations int
	force              bool
}

// WithLeafSize sets the maximum number of tokens per leaf.
func WithLeafSize(n int) BuildOption {
	return func(o *buildOptions) { o.leafSize = n }
}

// WithSearchK sets the default number of candidates re-ranked per query.
// 0 means trees * leaf size.
func WithSearchK(n int) BuildOption {
	return func(o *buildOptions) { o.searchK = n }
}

// WithTwoMeansIterations sets the number of refinement passes per split.
func WithTwoMeansIterations(n int) BuildOption {
	return func(o *buildOptions) { o.twoMeansIterations = n }
}

// ForceRebuild builds a new forest even if an equivalent one is cached.
func ForceRebuild() BuildOption {
	return func(o *buildOptions) { o.force = true }
}
