package kmeans

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/metricdp/distance"
)

func clusters() [][]float32 {
	return [][]float32{
		{0, 0}, {0, 1}, {1, 0}, {0.5, 0.5},
		{10, 10}, {10, 11}, {11, 10}, {10.5, 10.5},
	}
}

func rows(n int) []uint32 {
	idx := make([]uint32, n)
	for i := range idx {
		idx[i] = uint32(i)
	}
	return idx
}

func TestTwoMeansSeparatesClusters(t *testing.T) {
	vecs := clusters()
	at := func(row uint32) []float32 { return vecs[row] }

	for _, metric := range []distance.Metric{distance.MetricL2, distance.MetricL1} {
		t.Run(metric.String(), func(t *testing.T) {
			rng := rand.New(rand.NewPCG(1, 2))
			p, q := TwoMeans(at, rows(len(vecs)), 2, 8, metric, rng)

			// Every point must be closer to the centroid of its own cluster.
			lo, hi := p, q
			if distance.SquaredL2(p, []float32{0, 0}) > distance.SquaredL2(q, []float32{0, 0}) {
				lo, hi = q, p
			}
			for i, v := range vecs {
				closerLo := distance.SquaredL2(lo, v) < distance.SquaredL2(hi, v)
				assert.Equal(t, i < 4, closerLo, "point %d", i)
			}
		})
	}
}

func TestTwoMeansCosineNormalizes(t *testing.T) {
	vecs := [][]float32{{3, 0}, {0, 4}, {5, 0.1}, {0.1, 2}}
	at := func(row uint32) []float32 { return vecs[row] }

	p, q := TwoMeans(at, rows(len(vecs)), 2, 4, distance.MetricCosine, rand.New(rand.NewPCG(3, 4)))
	assert.InDelta(t, 1.0, distance.Norm(p), 1e-5)
	assert.InDelta(t, 1.0, distance.Norm(q), 1e-5)

	// Input vectors are never modified.
	assert.Equal(t, []float32{3, 0}, vecs[0])
}

func TestTwoMeansDistinctSeeds(t *testing.T) {
	vecs := [][]float32{{1}, {2}}
	at := func(row uint32) []float32 { return vecs[row] }

	for seed := range uint64(10) {
		p, q := TwoMeans(at, rows(2), 1, 0, distance.MetricL2, rand.New(rand.NewPCG(seed, seed)))
		assert.NotEqual(t, p[0], q[0])
	}
}
