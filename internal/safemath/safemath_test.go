package safemath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdd64(t *testing.T) {
	tests := []struct {
		name   string
		a, b   uint64
		want   uint64
		wantOk bool
	}{
		{"zero plus zero", 0, 0, 0, true},
		{"small", 1, 2, 3, true},
		{"at boundary", math.MaxUint64 - 1, 1, math.MaxUint64, true},
		{"overflow by one", math.MaxUint64, 1, 0, false},
		{"overflow max plus max", math.MaxUint64, math.MaxUint64, math.MaxUint64 - 1, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Add64(tc.a, tc.b)
			assert.Equal(t, tc.wantOk, ok)
			if tc.wantOk {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestSub64(t *testing.T) {
	tests := []struct {
		name   string
		a, b   uint64
		want   uint64
		wantOk bool
	}{
		{"equal", 5, 5, 0, true},
		{"positive", 10, 3, 7, true},
		{"underflow", 3, 10, 0, false},
		{"max minus max", math.MaxUint64, math.MaxUint64, 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Sub64(tc.a, tc.b)
			assert.Equal(t, tc.wantOk, ok)
			if tc.wantOk {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestApplyDelta(t *testing.T) {
	got, err := ApplyDelta(40, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(30), got)

	got, err = ApplyDelta(30, 0, 25)
	require.NoError(t, err)
	assert.Equal(t, uint64(55), got)

	_, err = ApplyDelta(math.MaxUint64, 0, 1)
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = ApplyDelta(5, 10, 1)
	assert.ErrorIs(t, err, ErrOverflow)
}
