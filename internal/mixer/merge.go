package mixer

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// Function selects how the points of the two sources are combined.
type Function uint8

const (
	// GeometricMean is floor(sqrt(left * right)).
	GeometricMean Function = iota + 1
)

func (f Function) String() string {
	switch f {
	case GeometricMean:
		return "geometric_mean"
	default:
		return fmt.Sprintf("function(%d)", uint8(f))
	}
}

// ParseFunction accepts the names produced by String.
func ParseFunction(s string) (Function, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "geometric_mean", "geometric-mean":
		return GeometricMean, nil
	default:
		return 0, fmt.Errorf("%w: unknown merge function %q", ErrInvalidFunction, s)
	}
}

func (f Function) MarshalText() ([]byte, error) {
	if f != GeometricMean {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFunction, uint8(f))
	}
	return []byte(f.String()), nil
}

func (f *Function) UnmarshalText(text []byte) error {
	parsed, err := ParseFunction(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Apply merges the points an identity holds in the left and right sources.
func (f Function) Apply(left, right uint64) (uint64, error) {
	switch f {
	case GeometricMean:
		return geometricMean(left, right)
	default:
		return 0, fmt.Errorf("%w: %d", ErrInvalidFunction, uint8(f))
	}
}

// geometricMean widens the product to 256 bits so that no pair of uint64
// inputs can wrap, then takes the integer square root.
func geometricMean(left, right uint64) (uint64, error) {
	if left == 0 || right == 0 {
		return 0, nil
	}
	product, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(left), uint256.NewInt(right))
	if overflow {
		return 0, ErrOverflow
	}
	root := new(uint256.Int).Sqrt(product)
	if !root.IsUint64() {
		return 0, ErrOverflow
	}
	return root.Uint64(), nil
}
