// Package noise draws metric-calibrated perturbations for metric
// differential privacy.
//
// The Euclidean sampler produces noise with density proportional to
// exp(-epsilon*||z||_2): the radius follows Gamma(shape=d, rate=epsilon) and
// the direction is uniform on the unit sphere. This is exact for the L2
// metric and a first-order approximation for L1 and cosine.
//
// The Laplace sampler draws i.i.d. Laplace(0, 1/epsilon) coordinates, giving
// density proportional to exp(-epsilon*||z||_1), which is exact for L1.
//
// Randomness is injected through a math/rand/v2 Source. SecureSource is
// backed by a cryptographically secure generator and is the default outside
// of tests; NewLockedSource gives reproducible streams.
package noise
