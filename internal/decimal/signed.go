package decimal

import (
	"github.com/holiman/uint256"
)

// Signed is a scaled two's complement value. It holds reward corrections,
// which go negative whenever a member's points drop.
type Signed struct {
	raw uint256.Int
}

// AddProduct returns s + points*d.
func (s Signed) AddProduct(points uint64, d Decimal) (Signed, error) {
	p, err := signedProduct(points, d)
	if err != nil {
		return Signed{}, err
	}
	return s.add(p)
}

// SubProduct returns s - points*d.
func (s Signed) SubProduct(points uint64, d Decimal) (Signed, error) {
	p, err := signedProduct(points, d)
	if err != nil {
		return Signed{}, err
	}
	return s.add(p.Neg(p))
}

// SubtractFrom returns v - s. The result is negative when s exceeds v.
func (s Signed) SubtractFrom(v *uint256.Int) (Signed, error) {
	if v.Sign() < 0 {
		return Signed{}, ErrOverflow
	}
	neg := new(uint256.Int).Neg(&s.raw)
	if !s.raw.IsZero() && neg.Eq(&s.raw) {
		// -(-2^255) does not exist
		return Signed{}, ErrOverflow
	}
	return Signed{raw: *v}.add(neg)
}

func signedProduct(points uint64, d Decimal) (*uint256.Int, error) {
	p, err := d.MulUint64(points)
	if err != nil {
		return nil, err
	}
	if p.Sign() < 0 {
		return nil, ErrOverflow
	}
	return p, nil
}

func (s Signed) add(v *uint256.Int) (Signed, error) {
	var r Signed
	r.raw.Add(&s.raw, v)
	sNeg, vNeg, rNeg := s.raw.Sign() < 0, v.Sign() < 0, r.raw.Sign() < 0
	if sNeg == vNeg && rNeg != sNeg {
		return Signed{}, ErrOverflow
	}
	return r, nil
}

func (s Signed) IsNegative() bool {
	return s.raw.Sign() < 0
}

func (s Signed) IsZero() bool {
	return s.raw.IsZero()
}

// Abs returns the magnitude of s.
func (s Signed) Abs() *uint256.Int {
	if s.IsNegative() {
		return new(uint256.Int).Neg(&s.raw)
	}
	return new(uint256.Int).Set(&s.raw)
}

// String prints the raw scaled value with its sign.
func (s Signed) String() string {
	if s.IsNegative() {
		return "-" + s.Abs().Dec()
	}
	return s.raw.Dec()
}

func (s Signed) Bytes32() [32]byte {
	return s.raw.Bytes32()
}

func SignedFromBytes32(b []byte) Signed {
	var s Signed
	s.raw.SetBytes32(b)
	return s
}
