package forest

import (
	"errors"
	"fmt"

	"github.com/hupe1980/metricdp/distance"
)

const (
	// DefaultNumTrees is the number of trees built when NumTrees is unset.
	DefaultNumTrees = 50
	// DefaultLeafSize is the maximum number of rows stored in a leaf.
	DefaultLeafSize = 64
	// DefaultTwoMeansIterations is the number of refinement iterations per split.
	DefaultTwoMeansIterations = 8
)

var (
	// ErrInvalidNumTrees is returned when NumTrees < 1.
	ErrInvalidNumTrees = errors.New("forest: number of trees must be at least 1")
	// ErrInvalidLeafSize is returned when LeafSize < 1.
	ErrInvalidLeafSize = errors.New("forest: leaf size must be at least 1")
	// ErrInvalidSearchK is returned for a negative search budget.
	ErrInvalidSearchK = errors.New("forest: search budget must not be negative")
	// ErrInvalidOptions is returned for other invalid options.
	ErrInvalidOptions = errors.New("forest: invalid options")
	// ErrEmpty is returned when there are no rows to index.
	ErrEmpty = errors.New("forest: no points to index")
	// ErrInvalidK is returned when k < 1.
	ErrInvalidK = errors.New("forest: k must be at least 1")
	// ErrDimensionMismatch is returned when a query or loaded forest does not
	// match the dimension of the indexed points.
	ErrDimensionMismatch = errors.New("forest: dimension mismatch")
	// ErrInvalidQuery is returned for queries with non-finite coordinates.
	ErrInvalidQuery = errors.New("forest: query is not finite")
	// ErrCorrupt is returned when a persisted forest fails validation.
	ErrCorrupt = errors.New("forest: corrupt data")
)

// Points is the read-only view of the vectors being indexed.
// At must return a slice of length Dimension for every row in [0, Len).
type Points interface {
	Len() int
	Dimension() int
	At(row int) []float32
}

// Options contains configuration options for building a forest.
type Options struct {
	// Metric is the distance used for splitting and re-ranking.
	Metric distance.Metric

	// NumTrees is the number of independent trees.
	NumTrees int

	// LeafSize is the maximum number of rows in a leaf.
	LeafSize int

	// SearchK is the default number of candidates collected per query.
	// 0 means NumTrees * LeafSize.
	SearchK int

	// Seed is the base seed of the per-tree random streams. It is only used
	// when Deterministic is set; otherwise a seed is drawn from a secure source.
	Seed          uint64
	Deterministic bool

	// Rows restricts the index to a subset of rows. nil indexes all rows.
	Rows []uint32

	// TwoMeansIterations is the number of two-means refinement iterations per split.
	TwoMeansIterations int

	// Workers bounds the number of trees built concurrently. 0 means GOMAXPROCS.
	Workers int
}

// DefaultOptions contains the default configuration options for a forest.
var DefaultOptions = Options{
	Metric:             distance.MetricL2,
	NumTrees:           DefaultNumTrees,
	LeafSize:           DefaultLeafSize,
	TwoMeansIterations: DefaultTwoMeansIterations,
}

func (o *Options) validate() error {
	if o.NumTrees < 1 {
		return ErrInvalidNumTrees
	}
	if o.LeafSize < 1 {
		return ErrInvalidLeafSize
	}
	if o.SearchK < 0 {
		return ErrInvalidSearchK
	}
	if o.TwoMeansIterations < 0 {
		return fmt.Errorf("%w: two-means iterations must not be negative", ErrInvalidOptions)
	}
	if o.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative", ErrInvalidOptions)
	}
	return nil
}
