package metricdp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/hupe1980/metricdp/distance"
	"github.com/hupe1980/metricdp/embedding"
	"github.com/hupe1980/metricdp/index/forest"
	"github.com/hupe1980/metricdp/internal/conv"
	"github.com/hupe1980/metricdp/noise"
)

// indexKey identifies an equivalent forest for the cache.
type indexKey struct {
	Metric             distance.Metric
	NumTrees           int
	LeafSize           int
	SearchK            int
	TwoMeansIterations int
}

// index is the published state used by Privatize.
type index struct {
	key     indexKey
	forest  *forest.Forest
	sampler noise.Sampler
}

// Privatizer replaces the tokens of a sequence by the nearest neighbors of
// their noisy embeddings.
//
// A Privatizer is safe for concurrent use. Privatize calls never block on
// BuildANN or LoadIndex; they use whichever index was current when they
// started.
type Privatizer struct {
	store      *embedding.Store
	opts       options
	src        rand.Source
	candidates []uint32

	current atomic.Pointer[index]
	cache   *lru.Cache[indexKey, *forest.Forest]
	buildMu sync.Mutex
}

// NewStore validates explicit id/vector pairs and builds an embedding store.
// Validation failures match ErrConfiguration.
func NewStore(ids []int, vectors [][]float32) (*embedding.Store, error) {
	s, err := embedding.New(ids, vectors)
	return s, translateError(err)
}

// NewStoreFromVocabulary builds an embedding store from a token→id map and a
// matrix whose row i is the embedding of id i.
// Validation failures match ErrConfiguration.
func NewStoreFromVocabulary(vocab map[string]int, matrix [][]float32) (*embedding.Store, error) {
	s, err := embedding.FromVocabulary(vocab, matrix)
	return s, translateError(err)
}

// New creates a Privatizer over store. BuildANN or LoadIndex must be called
// before Privatize.
func New(store *embedding.Store, optFns ...Option) (*Privatizer, error) {
	if store == nil {
		return nil, configError("embedding store is nil")
	}
	if store.Len() == 0 {
		return nil, configError("embedding store is empty")
	}

	opts := applyOptions(optFns)

	p := &Privatizer{
		store: store,
		opts:  opts,
	}
	if opts.seeded {
		p.src = noise.NewLockedSource(opts.seed)
	}

	if opts.minCandidateID > 0 {
		for row := range store.Len() {
			if store.TokenID(row) >= opts.minCandidateID {
				r, err := conv.Narrow[uint32](row)
				if err != nil {
					return nil, translateError(err)
				}
				p.candidates = append(p.candidates, r)
			}
		}
		if len(p.candidates) == 0 {
			return nil, configError("no token id >= %d to use as replacement", opts.minCandidateID)
		}
	}

	cache, err := lru.New[indexKey, *forest.Forest](opts.indexCacheSize)
	if err != nil {
		return nil, configError("index cache: %v", err)
	}
	p.cache = cache

	return p, nil
}

// Store returns the embedding store.
func (p *Privatizer) Store() *embedding.Store { return p.store }

// Candidates returns the number of tokens that can be chosen as replacements.
func (p *Privatizer) Candidates() int {
	if p.candidates == nil {
		return p.store.Len()
	}
	return len(p.candidates)
}

// IndexInfo describes the current index.
type IndexInfo struct {
	Metric             distance.Metric
	NumTrees           int
	LeafSize           int
	SearchK            int
	TwoMeansIterations int
	Rows               int
	ExactNoise         bool
	Stats              forest.Stats
}

// Index returns information about the current index, or ErrIndexNotBuilt.
func (p *Privatizer) Index() (IndexInfo, error) {
	cur := p.current.Load()
	if cur == nil {
		return IndexInfo{}, ErrIndexNotBuilt
	}
	return IndexInfo{
		Metric:             cur.key.Metric,
		NumTrees:           cur.key.NumTrees,
		LeafSize:           cur.key.LeafSize,
		SearchK:            cur.forest.SearchK(),
		TwoMeansIterations: cur.key.TwoMeansIterations,
		Rows:               cur.forest.Len(),
		ExactNoise:         noise.IsExact(cur.sampler, cur.key.Metric),
		Stats:              cur.forest.Stats(),
	}, nil
}

// BuildANN builds (or reuses) a forest of nTrees trees under metric and makes
// it the current index.
func (p *Privatizer) BuildANN(ctx context.Context, metric distance.Metric, nTrees int, optFns ...BuildOption) error {
	bo := buildOptions{
		leafSize:           forest.DefaultLeafSize,
		twoMeansIterations: forest.DefaultTwoMeansIterations,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&bo)
		}
	}

	if !metric.Valid() {
		return translateError(fmt.Errorf("%w: %v", distance.ErrUnsupportedMetric, metric))
	}

	key := indexKey{
		Metric:             metric,
		NumTrees:           nTrees,
		LeafSize:           bo.leafSize,
		SearchK:            bo.searchK,
		TwoMeansIterations: bo.twoMeansIterations,
	}
	if key.SearchK == 0 {
		key.SearchK = nTrees * bo.leafSize
	}

	sampler, err := p.samplerFor(metric)
	if err != nil {
		return translateError(err)
	}

	p.buildMu.Lock()
	defer p.buildMu.Unlock()

	if !bo.force {
		if f, ok := p.cache.Get(key); ok {
			p.current.Store(&index{key: key, forest: f, sampler: sampler})
			p.opts.logger.LogIndexCacheHit(ctx, metric, nTrees)
			return nil
		}
	}

	start := time.Now()
	f, err := p.build(ctx, key)
	dur := time.Since(start)

	p.opts.logger.LogBuild(ctx, metric, nTrees, bo.leafSize, p.Candidates(), dur, err)
	p.opts.metricsCollector.RecordBuild(metric, nTrees, dur, err)

	if err != nil {
		return translateError(err)
	}

	p.cache.Add(key, f)
	p.current.Store(&index{key: key, forest: f, sampler: sampler})
	return nil
}

func (p *Privatizer) build(ctx context.Context, key indexKey) (*forest.Forest, error) {
	rc := p.opts.resources

	// Reject before reserving memory for the estimate.
	if key.NumTrees < 1 {
		return nil, forest.ErrInvalidNumTrees
	}
	if key.LeafSize < 1 {
		return nil, forest.ErrInvalidLeafSize
	}

	est := forest.EstimateMemory(p.Candidates(), p.store.Dimension(), key.NumTrees, key.LeafSize)
	if err := rc.AcquireMemory(ctx, est); err != nil {
		return nil, err
	}
	defer rc.ReleaseMemory(est)

	return forest.Build(ctx, p.store, func(o *forest.Options) {
		o.Metric = key.Metric
		o.NumTrees = key.NumTrees
		o.LeafSize = key.LeafSize
		o.SearchK = key.SearchK
		o.TwoMeansIterations = key.TwoMeansIterations
		o.Rows = p.candidates
		o.Workers = rc.Workers(0)
		if p.opts.seeded {
			o.Seed = p.opts.seed
			o.Deterministic = true
		}
	})
}

// samplerFor returns the configured sampler or the calibrated default for
// metric. Seeded privatizers share one locked stream across builds.
func (p *Privatizer) samplerFor(metric distance.Metric) (noise.Sampler, error) {
	if p.opts.sampler != nil {
		return p.opts.sampler, nil
	}
	return noise.ForMetric(metric, p.src, p.opts.exactL1)
}

// Privatize returns a privatized copy of seq.
//
// Positions holding a special token are copied. Every other token is looked
// up, perturbed with noise for epsilon and replaced by the nearest candidate
// token; the replacement may itself be a special token id. On error no
// output is returned.
func (p *Privatizer) Privatize(ctx context.Context, seq []int, epsilon float64, special *SpecialTokens) ([]int, error) {
	start := time.Now()
	out, perturbed, err := p.privatize(ctx, seq, epsilon, special)
	dur := time.Since(start)

	p.opts.logger.LogPrivatize(ctx, len(seq), perturbed, err)
	p.opts.metricsCollector.RecordPrivatize(len(seq), perturbed, dur, err)

	return out, err
}

func (p *Privatizer) privatize(ctx context.Context, seq []int, epsilon float64, special *SpecialTokens) ([]int, int, error) {
	cur := p.current.Load()
	if cur == nil {
		return nil, 0, ErrIndexNotBuilt
	}
	if err := noise.CheckEpsilon(epsilon); err != nil {
		return nil, 0, translateError(err)
	}

	dim := p.store.Dimension()
	out := make([]int, len(seq))
	query := make([]float32, dim)
	perturbed := 0

	for i, tok := range seq {
		if err := ctx.Err(); err != nil {
			return nil, perturbed, err
		}

		if special.Contains(tok) {
			out[i] = tok
			continue
		}

		vec, ok := p.store.Lookup(tok)
		if !ok {
			return nil, perturbed, &UnknownTokenError{Token: tok, Position: i}
		}

		z, err := cur.sampler.Sample(epsilon, dim)
		if err != nil {
			return nil, perturbed, translateError(err)
		}
		if len(z) != dim {
			return nil, perturbed, configError("sampler returned %d coordinates, want %d", len(z), dim)
		}

		if err := perturb(query, vec, z); err != nil {
			return nil, perturbed, fmt.Errorf("%w: token at position %d: %w", ErrInvalidBudget, i, err)
		}

		nn, err := cur.forest.Search(query, 1)
		if err != nil {
			return nil, perturbed, translateError(err)
		}

		out[i] = p.store.TokenID(nn[0].Row)
		perturbed++
	}

	return out, perturbed, nil
}

var errNonFinitePerturbation = errors.New("perturbed vector is not finite")

// perturb writes vec + z into dst.
func perturb(dst, vec []float32, z []float64) error {
	for j, v := range z {
		dst[j] = float32(v)
	}
	blas32.Axpy(1, blas32.Vector{N: len(vec), Inc: 1, Data: vec}, blas32.Vector{N: len(dst), Inc: 1, Data: dst})

	for _, v := range dst {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return errNonFinitePerturbation
		}
	}
	return nil
}
