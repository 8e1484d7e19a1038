package noise

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/metricdp/distance"
)

func TestValidation(t *testing.T) {
	samplers := map[string]Sampler{
		"Euclidean": NewEuclidean(NewLockedSource(1)),
		"Laplace":   NewLaplace(NewLockedSource(1)),
	}

	for name, s := range samplers {
		t.Run(name, func(t *testing.T) {
			for _, eps := range []float64{0, -1, math.NaN(), math.Inf(1), math.Pow(2, -60)} {
				_, err := s.Sample(eps, 4)
				assert.ErrorIs(t, err, ErrInvalidEpsilon, "epsilon %v", eps)
			}

			_, err := s.Sample(1, 0)
			assert.ErrorIs(t, err, ErrInvalidDimension)
		})
	}
}

func TestEuclideanRadius(t *testing.T) {
	s := NewEuclidean(NewLockedSource(42))

	const (
		dim     = 8
		epsilon = 2.0
		n       = 4000
	)

	var sumRadius float64
	mean := make([]float64, dim)
	for range n {
		z, err := s.Sample(epsilon, dim)
		require.NoError(t, err)
		require.Len(t, z, dim)

		var r float64
		for i, v := range z {
			r += v * v
			mean[i] += v / n
		}
		sumRadius += math.Sqrt(r)
	}

	// Radius ~ Gamma(d, epsilon) has mean d/epsilon = 4 and sd sqrt(8)/2.
	assert.InDelta(t, dim/epsilon, sumRadius/n, 0.15)
	for _, m := range mean {
		assert.InDelta(t, 0, m, 0.25)
	}
}

func TestLaplaceScale(t *testing.T) {
	s := NewLaplace(NewLockedSource(7))

	const (
		dim     = 10
		epsilon = 2.0
		n       = 1000
	)

	var sumAbs float64
	for range n {
		z, err := s.Sample(epsilon, dim)
		require.NoError(t, err)
		for _, v := range z {
			sumAbs += math.Abs(v)
		}
	}

	// E|X| = 1/epsilon for Laplace(0, 1/epsilon).
	assert.InDelta(t, 1/epsilon, sumAbs/(n*dim), 0.03)
}

func TestLargeEpsilonShrinksNoise(t *testing.T) {
	s := NewEuclidean(NewLockedSource(3))

	z, err := s.Sample(1e6, 16)
	require.NoError(t, err)
	for _, v := range z {
		assert.Less(t, math.Abs(v), 1e-3)
	}
}

func TestLockedSourceDeterministic(t *testing.T) {
	a := NewEuclidean(NewLockedSource(99))
	b := NewEuclidean(NewLockedSource(99))

	za, err := a.Sample(1, 5)
	require.NoError(t, err)
	zb, err := b.Sample(1, 5)
	require.NoError(t, err)
	assert.Equal(t, za, zb)
}

func TestConcurrentSampling(t *testing.T) {
	s := NewEuclidean(NewLockedSource(5))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				z, err := s.Sample(1, 3)
				assert.NoError(t, err)
				assert.Len(t, z, 3)
			}
		}()
	}
	wg.Wait()
}

func TestSecureSource(t *testing.T) {
	s := NewEuclidean(nil)

	z, err := s.Sample(1, 4)
	require.NoError(t, err)
	assert.Len(t, z, 4)

	src := SecureSource()
	seen := make(map[uint64]struct{})
	for range 16 {
		seen[src.Uint64()] = struct{}{}
	}
	assert.Greater(t, len(seen), 1)
}

func TestForMetric(t *testing.T) {
	src := NewLockedSource(1)

	s, err := ForMetric(distance.MetricL2, src, false)
	require.NoError(t, err)
	assert.IsType(t, &Euclidean{}, s)
	assert.True(t, IsExact(s, distance.MetricL2))

	s, err = ForMetric(distance.MetricL1, src, false)
	require.NoError(t, err)
	assert.IsType(t, &Euclidean{}, s)
	assert.False(t, IsExact(s, distance.MetricL1))

	s, err = ForMetric(distance.MetricL1, src, true)
	require.NoError(t, err)
	assert.IsType(t, &Laplace{}, s)
	assert.True(t, IsExact(s, distance.MetricL1))

	s, err = ForMetric(distance.MetricCosine, src, true)
	require.NoError(t, err)
	assert.IsType(t, &Euclidean{}, s)
	assert.False(t, IsExact(s, distance.MetricCosine))

	_, err = ForMetric(distance.Metric(9), src, false)
	assert.ErrorIs(t, err, distance.ErrUnsupportedMetric)
}

func TestCheckEpsilon(t *testing.T) {
	for _, eps := range []float64{math.Pow(2, -50), 0.001, 1, 1e6} {
		assert.NoError(t, CheckEpsilon(eps), "epsilon %v", eps)
	}
	for _, eps := range []float64{0, -1, math.NaN(), math.Inf(1), math.Inf(-1), math.Pow(2, -51)} {
		assert.ErrorIs(t, CheckEpsilon(eps), ErrInvalidEpsilon, "epsilon %v", eps)
	}
}
