package metricdp

import (
	"errors"
	"fmt"

	"github.com/hupe1980/metricdp/distance"
	"github.com/hupe1980/metricdp/embedding"
	"github.com/hupe1980/metricdp/index/forest"
	"github.com/hupe1980/metricdp/noise"
	"github.com/hupe1980/metricdp/persistence"
	"github.com/hupe1980/metricdp/resource"
)

var (
	// ErrConfiguration is returned for an invalid store, invalid index
	// parameters, or a snapshot that does not belong to the store.
	ErrConfiguration = errors.New("metricdp: configuration error")
	// ErrInvalidBudget is returned for a privacy budget that is not finite or
	// too small, and for noise that overflows.
	ErrInvalidBudget = errors.New("metricdp: invalid privacy budget")
	// ErrUnknownToken is returned when a sequence contains an id that is not
	// in the store.
	ErrUnknownToken = errors.New("metricdp: unknown token")
	// ErrIndexNotBuilt is returned by operations that need an index before
	// BuildANN or LoadIndex succeeded.
	ErrIndexNotBuilt = errors.New("metricdp: index not built")
)

// UnknownTokenError reports the offending id and its position in the sequence.
// It matches ErrUnknownToken with errors.Is.
type UnknownTokenError struct {
	Token    int
	Position int
}

func (e *UnknownTokenError) Error() string {
	return fmt.Sprintf("metricdp: unknown token %d at position %d", e.Token, e.Position)
}

// Is reports whether target is ErrUnknownToken.
func (e *UnknownTokenError) Is(target error) bool { return target == ErrUnknownToken }

func configError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// translateError maps subpackage errors onto the four error kinds while
// keeping the cause matchable.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrConfiguration),
		errors.Is(err, ErrInvalidBudget),
		errors.Is(err, ErrUnknownToken),
		errors.Is(err, ErrIndexNotBuilt):
		return err
	}

	// Budget.
	if errors.Is(err, noise.ErrInvalidEpsilon) ||
		errors.Is(err, noise.ErrNonFinite) ||
		errors.Is(err, forest.ErrInvalidQuery) {
		return fmt.Errorf("%w: %w", ErrInvalidBudget, err)
	}

	// Store validation.
	for _, target := range []error{
		embedding.ErrLengthMismatch,
		embedding.ErrInvalidID,
		embedding.ErrDuplicateID,
		embedding.ErrDimensionMismatch,
		embedding.ErrInvalidDimension,
		embedding.ErrNonFinite,
		embedding.ErrMalformedFile,
	} {
		if errors.Is(err, target) {
			return fmt.Errorf("%w: %w", ErrConfiguration, err)
		}
	}

	// Index parameters and persisted data.
	for _, target := range []error{
		distance.ErrUnsupportedMetric,
		noise.ErrInvalidDimension,
		forest.ErrInvalidNumTrees,
		forest.ErrInvalidLeafSize,
		forest.ErrInvalidSearchK,
		forest.ErrInvalidOptions,
		forest.ErrEmpty,
		forest.ErrInvalidK,
		forest.ErrDimensionMismatch,
		forest.ErrCorrupt,
		persistence.ErrInvalidMagic,
		persistence.ErrInvalidVersion,
		persistence.ErrInvalidKind,
		persistence.ErrCorruptBlock,
	} {
		if errors.Is(err, target) {
			return fmt.Errorf("%w: %w", ErrConfiguration, err)
		}
	}
	if persistence.IsChecksumMismatch(err) {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	var limit *resource.LimitExceededError
	if errors.As(err, &limit) {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	return err
}
