package address

import (
	"crypto/ed25519"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		addr  Address
		valid bool
	}{
		{"simple", "alice", true},
		{"digits and separators", "member_01-a", true},
		{"empty", "", false},
		{"upper case", "Alice", false},
		{"space", "al ice", false},
		{"too long", Address(strings.Repeat("a", MaxLength+1)), false},
		{"max length", Address(strings.Repeat("a", MaxLength)), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.addr.Validate()
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalid)
			}
		})
	}
}

func TestFromPublicKey(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	a, err := FromPublicKey(pub)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(a.String(), Prefix))
	assert.Len(t, a.String(), len(Prefix)+2*hashSize)
	assert.NoError(t, a.Validate())

	again, err := FromPublicKey(pub)
	require.NoError(t, err)
	assert.Equal(t, a, again)

	_, err = FromPublicKey(pub[:10])
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestContract(t *testing.T) {
	a := Contract("engagement")
	assert.Equal(t, a, Contract("engagement"))
	assert.NotEqual(t, a, Contract("stake"))
	assert.NoError(t, a.Validate())
}
