// Package embedding holds the immutable token-id to vector mapping that the
// privatizer perturbs and searches.
//
// A Store is built either from explicit id/vector pairs (New) or from a
// vocabulary plus a matrix whose row i is token id i (FromVocabulary).
// Loaders for .fvecs matrices and line-per-token vocabularies are provided
// for command line use.
package embedding
