package embedding

import "errors"

var (
	// ErrLengthMismatch is returned when ids/vocabulary and vectors differ in length.
	ErrLengthMismatch = errors.New("embedding: ids and vectors length mismatch")
	// ErrInvalidID is returned for negative or out-of-range token ids.
	ErrInvalidID = errors.New("embedding: invalid token id")
	// ErrDuplicateID is returned when a token id occurs more than once.
	ErrDuplicateID = errors.New("embedding: duplicate token id")
	// ErrDimensionMismatch is returned for ragged rows.
	ErrDimensionMismatch = errors.New("embedding: dimension mismatch")
	// ErrInvalidDimension is returned for zero-length vectors.
	ErrInvalidDimension = errors.New("embedding: dimension must be positive")
	// ErrNonFinite is returned when a coordinate is NaN or infinite.
	ErrNonFinite = errors.New("embedding: non-finite coordinate")
	// ErrMalformedFile is returned by the loaders for corrupt input.
	ErrMalformedFile = errors.New("embedding: malformed file")
)
