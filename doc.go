// Package metricdp privatizes token sequences with metric differential privacy.
//
// Every non-special token of a sequence is mapped to its embedding, perturbed
// with noise calibrated to a privacy parameter epsilon and replaced by the
// token whose embedding is nearest to the noisy vector. Nearest neighbors are
// found with an approximate forest of random-projection trees.
//
// # Quick Start
//
//	store, _ := metricdp.NewStoreFromVocabulary(vocab, matrix)
//	p, _ := metricdp.New(store, metricdp.WithMinCandidateID(10))
//	_ = p.BuildANN(ctx, distance.MetricL2, 50)
//
//	special := metricdp.NewSpecialTokens(0, 1, 2)
//	out, _ := p.Privatize(ctx, []int{1, 42, 17, 2}, 10, special)
//
// Larger epsilon means less noise: with a very large epsilon the output is
// the input, with a small one tokens are replaced by essentially random
// candidates.
//
// # Noise
//
// Euclidean (L2) noise has density proportional to exp(-epsilon*|z|) and is
// sampled as a Gamma(dim, 1/epsilon) radius times a uniform direction. For L1
// the default sampler is the same Euclidean mechanism; WithExactL1Noise
// switches to per-coordinate Laplace(1/epsilon) noise.
//
// # Snapshots
//
// A built index can be stored with SaveIndex and restored with LoadIndex on
// any blobstore.BlobStore (local disk, memory, S3 or MinIO):
//
//	bs := blobstore.NewLocalStore("./indexes")
//	_ = p.SaveIndex(ctx, bs, "l2-50.mdp")
//	_ = p.LoadIndex(ctx, bs, "l2-50.mdp")
//
// # Errors
//
// All errors match one of ErrConfiguration, ErrInvalidBudget, ErrUnknownToken
// or ErrIndexNotBuilt with errors.Is, or are context errors.
package metricdp
