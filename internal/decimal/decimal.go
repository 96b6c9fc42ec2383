// Package decimal provides the fixed-point numbers used for reward
// accounting. Values are 256-bit integers scaled by 10^18; nothing here
// touches floating point.
package decimal

import (
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// Precision is the number of fractional decimal digits.
const Precision = 18

var (
	ErrOverflow = errors.New("decimal: overflow")
	ErrSyntax   = errors.New("decimal: invalid syntax")
)

// one is 10^Precision, the raw value of 1.0.
var one = uint256.NewInt(1_000_000_000_000_000_000)

// One returns a copy of the scale factor 10^18.
func One() *uint256.Int {
	return new(uint256.Int).Set(one)
}

// Decimal is an unsigned fixed-point number. The zero value is 0.
type Decimal struct {
	raw uint256.Int
}

// FromRaw builds a Decimal whose scaled representation is raw.
func FromRaw(raw *uint256.Int) Decimal {
	var d Decimal
	d.raw.Set(raw)
	return d
}

// FromUint64 returns the whole number x.
func FromUint64(x uint64) Decimal {
	var d Decimal
	d.raw.Mul(uint256.NewInt(x), one)
	return d
}

// Parse reads a non-negative decimal string such as "0.25" or "3".
// Digits beyond Precision are rejected rather than rounded.
func Parse(s string) (Decimal, error) {
	whole, frac, hasDot := strings.Cut(s, ".")
	if whole == "" || (hasDot && frac == "") || len(frac) > Precision {
		return Decimal{}, fmt.Errorf("%w: %q", ErrSyntax, s)
	}
	if !isDigits(whole) || !isDigits(frac) {
		return Decimal{}, fmt.Errorf("%w: %q", ErrSyntax, s)
	}
	digits := strings.TrimLeft(whole+frac+strings.Repeat("0", Precision-len(frac)), "0")
	if digits == "" {
		return Decimal{}, nil
	}
	raw, err := uint256.FromDecimal(digits)
	if err != nil {
		return Decimal{}, fmt.Errorf("%w: %q", ErrOverflow, s)
	}
	return FromRaw(raw), nil
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// Raw returns a copy of the scaled representation.
func (d Decimal) Raw() *uint256.Int {
	return new(uint256.Int).Set(&d.raw)
}

func (d Decimal) IsZero() bool {
	return d.raw.IsZero()
}

func (d Decimal) Cmp(o Decimal) int {
	return d.raw.Cmp(&o.raw)
}

// Add returns d + o, failing on 256-bit overflow.
func (d Decimal) Add(o Decimal) (Decimal, error) {
	var r Decimal
	if _, overflow := r.raw.AddOverflow(&d.raw, &o.raw); overflow {
		return Decimal{}, ErrOverflow
	}
	return r, nil
}

// MulUint64 returns the scaled product x * d without truncation.
func (d Decimal) MulUint64(x uint64) (*uint256.Int, error) {
	p, overflow := new(uint256.Int).MulOverflow(&d.raw, uint256.NewInt(x))
	if overflow {
		return nil, ErrOverflow
	}
	return p, nil
}

// MulFloor returns floor(x * d) as an integer.
func (d Decimal) MulFloor(x uint64) (uint64, error) {
	p, err := d.MulUint64(x)
	if err != nil {
		return 0, err
	}
	p.Div(p, one)
	if !p.IsUint64() {
		return 0, ErrOverflow
	}
	return p.Uint64(), nil
}

// MulFloorInt returns floor(x * d) for a 256-bit x.
func (d Decimal) MulFloorInt(x *uint256.Int) (*uint256.Int, error) {
	p, overflow := new(uint256.Int).MulOverflow(&d.raw, x)
	if overflow {
		return nil, ErrOverflow
	}
	return p.Div(p, one), nil
}

// Floor truncates a scaled value to its integer part.
func Floor(raw *uint256.Int) *uint256.Int {
	return new(uint256.Int).Div(raw, one)
}

func (d Decimal) String() string {
	whole, frac := new(uint256.Int).DivMod(&d.raw, one, new(uint256.Int))
	if frac.IsZero() {
		return whole.Dec()
	}
	fs := frac.Dec()
	fs = strings.Repeat("0", Precision-len(fs)) + fs
	return whole.Dec() + "." + strings.TrimRight(fs, "0")
}

// Bytes32 is the fixed-width big-endian encoding used in storage.
func (d Decimal) Bytes32() [32]byte {
	return d.raw.Bytes32()
}

func FromBytes32(b []byte) Decimal {
	var d Decimal
	d.raw.SetBytes32(b)
	return d
}

func (d Decimal) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Decimal) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
