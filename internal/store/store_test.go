package store

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/poe/internal/address"
	"github.com/eigerco/poe/pkg/db/pebble"
)

func TestNamespacesDoNotOverlap(t *testing.T) {
	// "ab" must not be a prefix range of "a" thanks to the length byte
	a := ContractNamespace("a")
	ab := ContractNamespace("ab")

	start, end := a.Range('m')
	key := ab.Key('m', []byte("x"))
	inRange := string(key) >= string(start) && string(key) < string(end)
	assert.False(t, inRange)

	assert.Equal(t, []byte("member"), a.Suffix('m', a.Key('m', []byte("member"))))
}

func TestContractKeyRoundTrip(t *testing.T) {
	addr := address.Contract("ledger")
	got, err := ContractFromKey(ContractKey(addr))
	require.NoError(t, err)
	assert.Equal(t, addr, got)

	_, err = ContractFromKey([]byte{prefixContract, 9, 'x'})
	assert.ErrorContains(t, err, "malformed contract key")
	_, err = ContractFromKey(nil)
	assert.ErrorContains(t, err, "malformed contract key")

	_, err = ContractFromKey(BalanceKey("stake", addr))
	assert.ErrorContains(t, err, "got bank key")
	_, err = ContractFromKey([]byte{0xff, 1, 'x'})
	assert.ErrorContains(t, err, "got unknown key")
}

func TestCollectLimitAndOrder(t *testing.T) {
	kv, err := pebble.NewKVStore()
	require.NoError(t, err)
	defer kv.Close() //nolint:errcheck

	ns := ContractNamespace("group")
	for _, m := range []string{"carol", "alice", "bob"} {
		require.NoError(t, PutUint64(kv, ns.Key('m', []byte(m)), uint64(len(m))))
	}
	require.NoError(t, kv.Put(ns.Key('t'), EncodeUint64(13)))

	start, end := ns.Range('m')
	var seen []string
	err = Collect(kv, start, end, 2, func(key, value []byte) error {
		seen = append(seen, string(ns.Suffix('m', key)))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, seen)

	seen = nil
	err = Collect(kv, After(ns.Key('m', []byte("bob"))), end, 0, func(key, value []byte) error {
		seen = append(seen, string(ns.Suffix('m', key)))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"carol"}, seen)

	v, err := GetUint64(kv, ns.Key('m', []byte("nobody")))
	require.NoError(t, err)
	assert.Zero(t, v)
}

func TestEncoderDecoder(t *testing.T) {
	amount := uint256.NewInt(700)
	var e Encoder
	raw := e.Uint64(42).String("ureward").Bytes32(amount.Bytes32()).Bool(true).Bytes()

	d := NewDecoder(raw)
	assert.Equal(t, uint64(42), d.Uint64())
	assert.Equal(t, "ureward", d.String())
	assert.Equal(t, amount, new(uint256.Int).SetBytes32(d.Bytes32()))
	assert.True(t, d.Bool())
	require.NoError(t, d.Err())

	short := NewDecoder(raw[:5])
	short.Uint64()
	assert.Error(t, short.Err())

	trailing := NewDecoder(append(EncodeUint64(1), 0))
	trailing.Uint64()
	assert.Error(t, trailing.Err())
}

func TestUint256Helpers(t *testing.T) {
	kv, err := pebble.NewKVStore()
	require.NoError(t, err)
	defer kv.Close() //nolint:errcheck

	key := ChainKey("supply")
	v, err := GetUint256(kv, key)
	require.NoError(t, err)
	assert.True(t, v.IsZero())

	require.NoError(t, PutUint256(kv, key, uint256.NewInt(5)))
	v, err = GetUint256(kv, key)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), v.Uint64())
}
