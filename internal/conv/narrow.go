package conv

import (
	"errors"
	"fmt"
)

// ErrOverflow is returned when a value does not fit the target type.
var ErrOverflow = errors.New("conv: integer overflow")

// Integer is the set of integer types Narrow converts between.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Narrow converts v to To. The conversion fails when the value changes on a
// round trip or flips sign.
func Narrow[To, From Integer](v From) (To, error) {
	out := To(v)
	if From(out) != v || (v < 0) != (out < 0) {
		return 0, fmt.Errorf("%w: %d does not fit %T", ErrOverflow, v, out)
	}
	return out, nil
}
