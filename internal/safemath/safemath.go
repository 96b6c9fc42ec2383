package safemath

import (
	"errors"
	"math/bits"
)

var ErrOverflow = errors.New("safemath: number overflow")

func Add64(a, b uint64) (uint64, bool) {
	v, carry := bits.Add64(a, b, 0)
	return v, carry == 0
}

func Sub64(a, b uint64) (uint64, bool) {
	v, borrow := bits.Sub64(a, b, 0)
	return v, borrow == 0
}

// ApplyDelta moves total from old to new, failing if an intermediate or the
// result leaves the uint64 range.
func ApplyDelta(total, old, new uint64) (uint64, error) {
	v, ok := Sub64(total, old)
	if !ok {
		return 0, ErrOverflow
	}
	v, ok = Add64(v, new)
	if !ok {
		return 0, ErrOverflow
	}
	return v, nil
}
