package kmeans

import (
	"github.com/hupe1980/metricdp/distance"
)

// twoMeansBatch caps the number of samples drawn per iteration.
const twoMeansBatch = 32

// Rand is the subset of *rand.Rand used for sampling.
type Rand interface {
	IntN(n int) int
}

// TwoMeans computes two centroids for the rows listed in idx using an
// incremental (online) two-means pass seeded by two distinct random rows.
//
// Each of the given iterations draws up to 32 random rows and moves the
// closer centroid towards the drawn row. For MetricCosine all vectors are
// L2-normalized first so that the centroids live on the unit sphere.
// idx must contain at least two rows.
func TwoMeans(at func(row uint32) []float32, idx []uint32, dim, iterations int, metric distance.Metric, rng Rand) (p, q []float32) {
	n := len(idx)

	i := rng.IntN(n)
	j := rng.IntN(n - 1)
	if j >= i {
		j++
	}

	p = load(at(idx[i]), make([]float32, dim), metric)
	q = load(at(idx[j]), make([]float32, dim), metric)

	dist := centroidDistance(metric)
	scratch := make([]float32, dim)
	ic, jc := 1.0, 1.0

	steps := iterations * min(n, twoMeansBatch)
	for range steps {
		x := load(at(idx[rng.IntN(n)]), scratch, metric)

		di := ic * dist(p, x)
		dj := jc * dist(q, x)

		switch {
		case di < dj:
			update(p, x, ic)
			ic++
		case dj < di:
			update(q, x, jc)
			jc++
		}
	}

	if metric == distance.MetricCosine {
		distance.NormalizeL2InPlace(p)
		distance.NormalizeL2InPlace(q)
	}

	return p, q
}

// load copies src into dst, normalizing for cosine.
func load(src, dst []float32, metric distance.Metric) []float32 {
	copy(dst, src)
	if metric == distance.MetricCosine {
		distance.NormalizeL2InPlace(dst)
	}
	return dst
}

// update moves the centroid c (weight w) towards x: c = (c*w + x) / (w+1).
func update(c, x []float32, w float64) {
	inv := 1 / (w + 1)
	for k := range c {
		c[k] = float32((float64(c[k])*w + float64(x[k])) * inv)
	}
}

func centroidDistance(metric distance.Metric) distance.Func {
	if metric == distance.MetricL1 {
		return distance.L1
	}
	return distance.SquaredL2
}
