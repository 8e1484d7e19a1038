package noise

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/google/differential-privacy/go/v3/checks"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/hupe1980/metricdp/distance"
)

var (
	// ErrInvalidEpsilon is returned for a budget that is not finite or too small.
	ErrInvalidEpsilon = errors.New("noise: invalid epsilon")
	// ErrInvalidDimension is returned when dim < 1.
	ErrInvalidDimension = errors.New("noise: dimension must be positive")
	// ErrNonFinite is returned when a drawn coordinate is NaN or infinite.
	ErrNonFinite = errors.New("noise: non-finite sample")
)

// maxDirectionRetries bounds resampling of an all-zero gaussian direction.
const maxDirectionRetries = 8

// Sampler draws a perturbation vector of length dim for the budget epsilon.
// Implementations must be safe for concurrent use.
type Sampler interface {
	Sample(epsilon float64, dim int) ([]float64, error)
}

// Calibrated is implemented by samplers that know for which metric their
// noise is exactly metric-DP.
type Calibrated interface {
	ExactFor(m distance.Metric) bool
}

// IsExact reports whether s gives exact metric-DP under m.
func IsExact(s Sampler, m distance.Metric) bool {
	c, ok := s.(Calibrated)
	return ok && c.ExactFor(m)
}

// ForMetric returns the sampler used for metric m. The Euclidean
// construction is used for every metric unless exactL1 is set and m is L1.
func ForMetric(m distance.Metric, src rand.Source, exactL1 bool) (Sampler, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %v", distance.ErrUnsupportedMetric, m)
	}
	if exactL1 && m == distance.MetricL1 {
		return NewLaplace(src), nil
	}
	return NewEuclidean(src), nil
}

// CheckEpsilon reports whether epsilon is a usable budget: finite and at
// least 2^-50.
func CheckEpsilon(epsilon float64) error {
	if err := checks.CheckEpsilonVeryStrict(epsilon); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEpsilon, err)
	}
	return nil
}

func validate(epsilon float64, dim int) error {
	if err := CheckEpsilon(epsilon); err != nil {
		return err
	}
	if dim < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidDimension, dim)
	}
	return nil
}

func checkFinite(z []float64) error {
	for i, v := range z {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: coordinate %d", ErrNonFinite, i)
		}
	}
	return nil
}

// Euclidean samples noise with density proportional to exp(-epsilon*||z||_2).
type Euclidean struct {
	src rand.Source
}

// NewEuclidean creates a Euclidean sampler drawing from src. A nil src uses
// SecureSource.
func NewEuclidean(src rand.Source) *Euclidean {
	if src == nil {
		src = SecureSource()
	}
	return &Euclidean{src: src}
}

// Sample implements Sampler.
func (e *Euclidean) Sample(epsilon float64, dim int) ([]float64, error) {
	if err := validate(epsilon, dim); err != nil {
		return nil, err
	}

	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: e.src}

	z := make([]float64, dim)
	var norm float64
	for range maxDirectionRetries {
		norm = 0
		for i := range z {
			z[i] = normal.Rand()
			norm += z[i] * z[i]
		}
		if norm > 0 {
			break
		}
	}
	if norm == 0 {
		return nil, fmt.Errorf("%w: degenerate direction", ErrNonFinite)
	}

	radius := distuv.Gamma{Alpha: float64(dim), Beta: epsilon, Src: e.src}.Rand()
	scale := radius / math.Sqrt(norm)
	for i := range z {
		z[i] *= scale
	}

	if err := checkFinite(z); err != nil {
		return nil, err
	}
	return z, nil
}

// ExactFor implements Calibrated.
func (e *Euclidean) ExactFor(m distance.Metric) bool { return m == distance.MetricL2 }

// Laplace samples i.i.d. Laplace(0, 1/epsilon) coordinates.
type Laplace struct {
	src rand.Source
}

// NewLaplace creates a Laplace sampler drawing from src. A nil src uses
// SecureSource.
func NewLaplace(src rand.Source) *Laplace {
	if src == nil {
		src = SecureSource()
	}
	return &Laplace{src: src}
}

// Sample implements Sampler.
func (l *Laplace) Sample(epsilon float64, dim int) ([]float64, error) {
	if err := validate(epsilon, dim); err != nil {
		return nil, err
	}

	dist := distuv.Laplace{Mu: 0, Scale: 1 / epsilon, Src: l.src}

	z := make([]float64, dim)
	for i := range z {
		z[i] = dist.Rand()
	}

	if err := checkFinite(z); err != nil {
		return nil, err
	}
	return z, nil
}

// ExactFor implements Calibrated.
func (l *Laplace) ExactFor(m distance.Metric) bool { return m == distance.MetricL1 }
