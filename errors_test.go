package metricdp

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/metricdp/distance"
	"github.com/hupe1980/metricdp/embedding"
	"github.com/hupe1980/metricdp/index/forest"
	"github.com/hupe1980/metricdp/noise"
	"github.com/hupe1980/metricdp/persistence"
	"github.com/hupe1980/metricdp/resource"
)

func TestTranslateError(t *testing.T) {
	other := errors.New("boom")

	tests := []struct {
		name string
		in   error
		kind error
	}{
		{"Epsilon", fmt.Errorf("x: %w", noise.ErrInvalidEpsilon), ErrInvalidBudget},
		{"NonFiniteNoise", noise.ErrNonFinite, ErrInvalidBudget},
		{"Query", forest.ErrInvalidQuery, ErrInvalidBudget},
		{"Duplicate", embedding.ErrDuplicateID, ErrConfiguration},
		{"Malformed", embedding.ErrMalformedFile, ErrConfiguration},
		{"Metric", distance.ErrUnsupportedMetric, ErrConfiguration},
		{"Trees", forest.ErrInvalidNumTrees, ErrConfiguration},
		{"Corrupt", forest.ErrCorrupt, ErrConfiguration},
		{"Magic", persistence.ErrInvalidMagic, ErrConfiguration},
		{"Block", persistence.ErrCorruptBlock, ErrConfiguration},
		{"Checksum", &persistence.ChecksumMismatchError{Expected: 1, Actual: 2}, ErrConfiguration},
		{"Limit", &resource.LimitExceededError{Requested: 2, Limit: 1}, ErrConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := translateError(tt.in)
			assert.ErrorIs(t, err, tt.kind)
			assert.ErrorIs(t, err, tt.in)
		})
	}

	assert.NoError(t, translateError(nil))
	assert.Equal(t, other, translateError(other))
	assert.Equal(t, context.Canceled, translateError(context.Canceled))

	kinded := configError("already %s", "kinded")
	assert.Equal(t, kinded, translateError(kinded))
}

func TestUnknownTokenError(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &UnknownTokenError{Token: 7, Position: 3})

	assert.ErrorIs(t, err, ErrUnknownToken)
	assert.NotErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "unknown token 7 at position 3")
}
