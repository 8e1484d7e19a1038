package forest

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/metricdp/distance"
	"github.com/hupe1980/metricdp/internal/conv"
	"github.com/hupe1980/metricdp/internal/kmeans"
	"github.com/hupe1980/metricdp/noise"
)

// maxSplitAttempts is the number of two-means attempts before a node falls
// back to a random split.
const maxSplitAttempts = 3

// node is a tree node. Leaves have Left == Right == -1 and own
// items[Start:End]; inner nodes split by the hyperplane
// dot(normals[Normal*dim:], x) + Offset, with a negative Normal marking a
// random split.
type node struct {
	Left, Right int32
	Normal      int32
	Start, End  int32
	Offset      float64
}

func (n *node) leaf() bool { return n.Left < 0 }

// tree is an arena of nodes. Node 0 is the root.
type tree struct {
	nodes   []node
	normals []float32
	items   []uint32
}

// Forest is an immutable forest of partition trees over a Points view.
type Forest struct {
	opts   Options
	points Points
	dim    int
	rows   []uint32
	trees  []tree
	dist   distance.Func
}

// Build constructs a forest over points.
func Build(ctx context.Context, points Points, optFns ...func(o *Options)) (*Forest, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if err := opts.validate(); err != nil {
		return nil, err
	}

	dist, err := distance.Provider(opts.Metric)
	if err != nil {
		return nil, err
	}

	rows, err := resolveRows(points, opts.Rows)
	if err != nil {
		return nil, err
	}
	opts.Rows = nil

	if opts.SearchK == 0 {
		opts.SearchK = opts.NumTrees * opts.LeafSize
	}
	if !opts.Deterministic {
		opts.Seed = noise.SecureSource().Uint64()
	}
	if opts.Workers == 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}

	f := &Forest{
		opts:   opts,
		points: points,
		dim:    points.Dimension(),
		rows:   rows,
		trees:  make([]tree, opts.NumTrees),
		dist:   dist,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for t := range f.trees {
		g.Go(func() error {
			b := &treeBuilder{
				f:   f,
				rng: rand.New(rand.NewPCG(opts.Seed, uint64(t))), //nolint:gosec // t is a small non-negative index
			}
			tr, err := b.build(gctx)
			if err != nil {
				return err
			}
			f.trees[t] = tr
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return f, nil
}

func resolveRows(points Points, subset []uint32) ([]uint32, error) {
	n := points.Len()
	if n == 0 || points.Dimension() < 1 {
		return nil, ErrEmpty
	}
	if _, err := conv.Narrow[int32](n); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}

	if subset == nil {
		rows := make([]uint32, n)
		for i := range rows {
			rows[i] = uint32(i) //nolint:gosec // n fits in int32
		}
		return rows, nil
	}

	rows := slices.Clone(subset)
	slices.Sort(rows)
	rows = slices.Compact(rows)
	if len(rows) == 0 {
		return nil, ErrEmpty
	}
	if last := rows[len(rows)-1]; int(last) >= n {
		return nil, fmt.Errorf("%w: row %d out of range [0, %d)", ErrInvalidOptions, last, n)
	}
	return rows, nil
}

type treeBuilder struct {
	f   *Forest
	rng *rand.Rand
	t   tree
}

func (b *treeBuilder) at(row uint32) []float32 {
	return b.f.points.At(int(row))
}

func (b *treeBuilder) build(ctx context.Context) (tree, error) {
	idx := slices.Clone(b.f.rows)
	b.t.items = make([]uint32, 0, len(idx))

	if _, err := b.buildNode(ctx, idx); err != nil {
		return tree{}, err
	}
	return b.t, nil
}

func (b *treeBuilder) buildNode(ctx context.Context, idx []uint32) (int32, error) {
	if err := ctx.Err(); err != nil {
		return -1, err
	}

	id := int32(len(b.t.nodes)) //nolint:gosec // nodes < 2*rows <= MaxInt32
	b.t.nodes = append(b.t.nodes, node{Left: -1, Right: -1, Normal: -1})

	if len(idx) <= b.f.opts.LeafSize {
		start := int32(len(b.t.items)) //nolint:gosec // items <= rows
		b.t.items = append(b.t.items, idx...)
		b.t.nodes[id].Start = start
		b.t.nodes[id].End = int32(len(b.t.items)) //nolint:gosec // items <= rows
		return id, nil
	}

	split, ok := b.split(id, idx)
	if !ok {
		b.rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		split = len(idx) / 2
	}

	left, err := b.buildNode(ctx, idx[:split])
	if err != nil {
		return -1, err
	}
	right, err := b.buildNode(ctx, idx[split:])
	if err != nil {
		return -1, err
	}

	b.t.nodes[id].Left = left
	b.t.nodes[id].Right = right
	return id, nil
}

// split tries to find a hyperplane that separates idx. On success the rows
// are partitioned in place (left side first), the hyperplane is attached to
// node id and the size of the left side is returned.
func (b *treeBuilder) split(id int32, idx []uint32) (int, bool) {
	dim := b.f.dim
	metric := b.f.opts.Metric
	normal := make([]float32, dim)

	for range maxSplitAttempts {
		p, q := kmeans.TwoMeans(b.at, idx, dim, b.f.opts.TwoMeansIterations, metric, b.rng)

		var offset float64
		for i := range normal {
			normal[i] = p[i] - q[i]
		}
		if !distance.NormalizeL2InPlace(normal) {
			continue
		}
		if metric != distance.MetricCosine {
			for i := range normal {
				offset -= float64(normal[i]) * (float64(p[i]) + float64(q[i])) / 2
			}
		}

		// Partition: margin <= 0 goes left.
		l, r := 0, len(idx)-1
		for l <= r {
			if margin(normal, offset, b.at(idx[l])) > 0 {
				idx[l], idx[r] = idx[r], idx[l]
				r--
			} else {
				l++
			}
		}
		if l == 0 || l == len(idx) {
			continue
		}

		n := &b.t.nodes[id]
		n.Normal = int32(len(b.t.normals) / dim) //nolint:gosec // bounded by node count
		n.Offset = offset
		b.t.normals = append(b.t.normals, normal...)
		return l, true
	}

	return 0, false
}

func margin(normal []float32, offset float64, x []float32) float64 {
	return distance.Dot(normal, x) + offset
}

// Options returns the resolved build options. Rows is left nil; see Rows.
func (f *Forest) Options() Options { return f.opts }

// Dimension returns the dimension of the indexed points.
func (f *Forest) Dimension() int { return f.dim }

// Metric returns the metric the forest was built for.
func (f *Forest) Metric() distance.Metric { return f.opts.Metric }

// NumTrees returns the number of trees.
func (f *Forest) NumTrees() int { return len(f.trees) }

// Len returns the number of indexed rows.
func (f *Forest) Len() int { return len(f.rows) }

// Rows returns a copy of the indexed rows in ascending order.
func (f *Forest) Rows() []uint32 { return slices.Clone(f.rows) }

// SearchK returns the default candidate budget per query.
func (f *Forest) SearchK() int { return f.opts.SearchK }

// MemoryBytes estimates the heap footprint of the trees.
func (f *Forest) MemoryBytes() int64 {
	const nodeSize = 5*4 + 8
	total := int64(len(f.rows)) * 4
	for i := range f.trees {
		t := &f.trees[i]
		total += int64(len(t.nodes))*nodeSize + int64(len(t.normals))*4 + int64(len(t.items))*4
	}
	return total
}

// EstimateMemory estimates the memory needed to build a forest over rows
// points of dimension dim.
func EstimateMemory(rows, dim, numTrees, leafSize int) int64 {
	if rows <= 0 || numTrees <= 0 {
		return 0
	}
	inner := int64(math.Ceil(float64(rows) / float64(max(leafSize, 1)) * 2))
	perTree := int64(rows)*4 + inner*(5*4+8) + inner*int64(dim)*4
	return int64(numTrees) * perTree
}
