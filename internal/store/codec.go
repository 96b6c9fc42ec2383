package store

import (
	"encoding/binary"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/eigerco/poe/pkg/db"
)

func EncodeUint64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func DecodeUint64(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("store: uint64 value has %d bytes", len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}

// GetUint64 loads a uint64, returning 0 when the key is absent.
func GetUint64(r db.Reader, key []byte) (uint64, error) {
	v, ok, err := Get(r, key)
	if err != nil || !ok {
		return 0, err
	}
	return DecodeUint64(v)
}

func PutUint64(w db.Writer, key []byte, v uint64) error {
	return w.Put(key, EncodeUint64(v))
}

func EncodeUint256(v *uint256.Int) []byte {
	b := v.Bytes32()
	return b[:]
}

func DecodeUint256(b []byte) (*uint256.Int, error) {
	if len(b) != 32 {
		return nil, fmt.Errorf("store: uint256 value has %d bytes", len(b))
	}
	return new(uint256.Int).SetBytes32(b), nil
}

// GetUint256 loads a 256-bit amount, returning 0 when the key is absent.
func GetUint256(r db.Reader, key []byte) (*uint256.Int, error) {
	v, ok, err := Get(r, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return new(uint256.Int), nil
	}
	return DecodeUint256(v)
}

func PutUint256(w db.Writer, key []byte, v *uint256.Int) error {
	return w.Put(key, EncodeUint256(v))
}

// Encoder appends fixed-width and length-prefixed fields.
type Encoder struct {
	buf []byte
}

func (e *Encoder) Uint64(v uint64) *Encoder {
	e.buf = binary.BigEndian.AppendUint64(e.buf, v)
	return e
}

func (e *Encoder) Bytes32(v [32]byte) *Encoder {
	e.buf = append(e.buf, v[:]...)
	return e
}

func (e *Encoder) String(s string) *Encoder {
	e.buf = binary.BigEndian.AppendUint16(e.buf, uint16(len(s)))
	e.buf = append(e.buf, s...)
	return e
}

func (e *Encoder) Bool(v bool) *Encoder {
	if v {
		e.buf = append(e.buf, 1)
	} else {
		e.buf = append(e.buf, 0)
	}
	return e
}

func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Decoder reads what Encoder wrote. The first failure sticks and is
// reported by Err.
type Decoder struct {
	buf []byte
	err error
}

func NewDecoder(b []byte) *Decoder {
	return &Decoder{buf: b}
}

func (d *Decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if len(d.buf) < n {
		d.err = fmt.Errorf("store: truncated value, need %d bytes, have %d", n, len(d.buf))
		return nil
	}
	b := d.buf[:n]
	d.buf = d.buf[n:]
	return b
}

func (d *Decoder) Uint64() uint64 {
	b := d.take(8)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

func (d *Decoder) Bytes32() []byte {
	b := d.take(32)
	if b == nil {
		return make([]byte, 32)
	}
	return b
}

func (d *Decoder) String() string {
	l := d.take(2)
	if l == nil {
		return ""
	}
	return string(d.take(int(binary.BigEndian.Uint16(l))))
}

func (d *Decoder) Bool() bool {
	b := d.take(1)
	return b != nil && b[0] == 1
}

// Err reports the first decoding failure, or trailing bytes.
func (d *Decoder) Err() error {
	if d.err == nil && len(d.buf) != 0 {
		return fmt.Errorf("store: %d trailing bytes", len(d.buf))
	}
	return d.err
}
