package forest

import (
	"fmt"
	"io"

	"github.com/hupe1980/metricdp/distance"
	"github.com/hupe1980/metricdp/internal/conv"
	"github.com/hupe1980/metricdp/persistence"
)

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

// forestParams follows the file header.
type forestParams struct {
	LeafSize           uint32
	SearchK            uint32
	TwoMeansIterations uint32
	Workers            uint32
	RowCount           uint64
	Seed               uint64
}

// treeHeader precedes the columns of each tree.
type treeHeader struct {
	Nodes   uint32
	Normals uint32
	Items   uint32
}

// WriteTo writes the forest in binary format. The indexed vectors are not
// written; ReadFrom needs the same Points again.
//
// It matches the io.WriterTo interface.
func (f *Forest) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	sum := persistence.NewChecksumWriter(cw)
	writer := persistence.NewWriter(sum)

	header := &persistence.FileHeader{
		Kind:      persistence.KindForest,
		Metric:    uint8(f.opts.Metric), //nolint:gosec // metric is a small enum
		Dimension: uint32(f.dim),        //nolint:gosec // dimension is validated positive
		Count:     uint64(len(f.trees)),
	}
	if err := writer.WriteHeader(header); err != nil {
		return cw.n, err
	}

	params := forestParams{
		LeafSize:           uint32(f.opts.LeafSize),           //nolint:gosec // validated positive
		SearchK:            uint32(f.opts.SearchK),            //nolint:gosec // validated positive
		TwoMeansIterations: uint32(f.opts.TwoMeansIterations), //nolint:gosec // validated non-negative
		Workers:            uint32(f.opts.Workers),            //nolint:gosec // validated non-negative
		RowCount:           uint64(len(f.rows)),
		Seed:               f.opts.Seed,
	}
	if err := writer.WriteValue(&params); err != nil {
		return cw.n, err
	}
	if err := writer.WriteUint32Slice(f.rows); err != nil {
		return cw.n, err
	}

	for i := range f.trees {
		if err := writeTree(writer, &f.trees[i]); err != nil {
			return cw.n, fmt.Errorf("tree %d: %w", i, err)
		}
	}

	if err := sum.WriteTrailer(); err != nil {
		return cw.n, err
	}

	return cw.n, nil
}

func writeTree(writer *persistence.Writer, t *tree) error {
	th := treeHeader{
		Nodes:   uint32(len(t.nodes)),   //nolint:gosec // bounded by row count
		Normals: uint32(len(t.normals)), //nolint:gosec // bounded by row count * dim
		Items:   uint32(len(t.items)),   //nolint:gosec // bounded by row count
	}
	if err := writer.WriteValue(&th); err != nil {
		return err
	}

	n := len(t.nodes)
	left := make([]int32, n)
	right := make([]int32, n)
	normal := make([]int32, n)
	start := make([]int32, n)
	end := make([]int32, n)
	offset := make([]float64, n)
	for i, nd := range t.nodes {
		left[i], right[i], normal[i] = nd.Left, nd.Right, nd.Normal
		start[i], end[i], offset[i] = nd.Start, nd.End, nd.Offset
	}

	for _, col := range [][]int32{left, right, normal, start, end} {
		if err := writer.WriteInt32Slice(col); err != nil {
			return err
		}
	}
	if err := writer.WriteValue(offset); err != nil {
		return err
	}
	if err := writer.WriteFloat32Slice(t.normals); err != nil {
		return err
	}
	return writer.WriteUint32Slice(t.items)
}

// ReadFrom reads a forest written by WriteTo and attaches it to points.
// The structure is validated so that a corrupt input can never cause an
// out-of-range access during search.
func ReadFrom(r io.Reader, points Points) (*Forest, error) {
	sum := persistence.NewChecksumReader(r)
	reader := persistence.NewReader(sum)

	header, err := reader.ReadHeader(persistence.KindForest)
	if err != nil {
		return nil, err
	}

	metric := distance.Metric(header.Metric)
	dist, err := distance.Provider(metric)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if int(header.Dimension) != points.Dimension() {
		return nil, fmt.Errorf("%w: forest has %d dimensions, points have %d", ErrDimensionMismatch, header.Dimension, points.Dimension())
	}

	var params forestParams
	if err := reader.ReadValue(&params); err != nil {
		return nil, err
	}

	numTrees, err := conv.Narrow[int](header.Count)
	if err != nil || numTrees < 1 || numTrees > 1<<16 {
		return nil, fmt.Errorf("%w: tree count %d", ErrCorrupt, header.Count)
	}
	rowCount, err := conv.Narrow[int](params.RowCount)
	if err != nil || rowCount < 1 || rowCount > points.Len() {
		return nil, fmt.Errorf("%w: row count %d for %d points", ErrCorrupt, params.RowCount, points.Len())
	}
	if params.LeafSize < 1 || params.SearchK < 1 {
		return nil, fmt.Errorf("%w: invalid parameters", ErrCorrupt)
	}

	rows, err := reader.ReadUint32Slice(rowCount)
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		if int(row) >= points.Len() || (i > 0 && row <= rows[i-1]) {
			return nil, fmt.Errorf("%w: invalid row list", ErrCorrupt)
		}
	}

	f := &Forest{
		opts: Options{
			Metric:             metric,
			NumTrees:           numTrees,
			LeafSize:           int(params.LeafSize),
			SearchK:            int(params.SearchK),
			Seed:               params.Seed,
			Deterministic:      true,
			TwoMeansIterations: int(params.TwoMeansIterations),
			Workers:            int(params.Workers),
		},
		points: points,
		dim:    points.Dimension(),
		rows:   rows,
		trees:  make([]tree, numTrees),
		dist:   dist,
	}

	for i := range f.trees {
		t, err := readTree(reader, f.dim, rowCount, points.Len())
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		f.trees[i] = t
	}

	if err := sum.VerifyTrailer(); err != nil {
		if persistence.IsChecksumMismatch(err) {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		return nil, err
	}

	return f, nil
}

func readTree(reader *persistence.Reader, dim, rowCount, numPoints int) (tree, error) {
	var th treeHeader
	if err := reader.ReadValue(&th); err != nil {
		return tree{}, err
	}

	n := int(th.Nodes)
	if n < 1 || n > 2*rowCount || int(th.Items) != rowCount || int(th.Normals)%dim != 0 || int(th.Normals) > n*dim {
		return tree{}, fmt.Errorf("%w: invalid tree header", ErrCorrupt)
	}

	var cols [5][]int32
	for c := range cols {
		col, err := reader.ReadInt32Slice(n)
		if err != nil {
			return tree{}, err
		}
		cols[c] = col
	}
	offset := make([]float64, n)
	if err := reader.ReadValue(offset); err != nil {
		return tree{}, err
	}
	normals, err := reader.ReadFloat32Slice(int(th.Normals))
	if err != nil {
		return tree{}, err
	}
	items, err := reader.ReadUint32Slice(int(th.Items))
	if err != nil {
		return tree{}, err
	}
	for _, row := range items {
		if int(row) >= numPoints {
			return tree{}, fmt.Errorf("%w: leaf row %d out of range", ErrCorrupt, row)
		}
	}

	numNormals := int32(int(th.Normals) / dim) //nolint:gosec // bounded by n
	nodes := make([]node, n)
	for i := range nodes {
		nd := node{
			Left: cols[0][i], Right: cols[1][i], Normal: cols[2][i],
			Start: cols[3][i], End: cols[4][i], Offset: offset[i],
		}
		if nd.leaf() {
			if nd.Right >= 0 || nd.Start < 0 || nd.Start > nd.End || int(nd.End) > len(items) {
				return tree{}, fmt.Errorf("%w: invalid leaf %d", ErrCorrupt, i)
			}
		} else {
			// Children are always created after their parent.
			if nd.Left <= int32(i) || nd.Right <= int32(i) || int(nd.Left) >= n || int(nd.Right) >= n || nd.Normal >= numNormals { //nolint:gosec // i < n
				return tree{}, fmt.Errorf("%w: invalid node %d", ErrCorrupt, i)
			}
		}
		nodes[i] = nd
	}

	return tree{nodes: nodes, normals: normals, items: items}, nil
}
