package pebble

import (
	"encoding/binary"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/poe/pkg/db"
)

func newMemStore(t *testing.T) *KVStore {
	t.Helper()
	store, err := NewKVStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// collect drains an iterator into "key=value" strings.
func collect(t *testing.T, r db.Reader, start, end []byte) []string {
	t.Helper()
	iter, err := r.NewIterator(start, end)
	require.NoError(t, err)
	defer iter.Close() //nolint:errcheck

	var out []string
	for iter.Next() {
		v, err := iter.Value()
		require.NoError(t, err)
		out = append(out, string(iter.Key())+"="+string(v))
	}
	return out
}

func TestGetPutDelete(t *testing.T) {
	store := newMemStore(t)

	_, err := store.Get([]byte("member"))
	assert.ErrorIs(t, err, db.ErrNotFound)

	require.NoError(t, store.Put([]byte("member"), []byte("7")))
	got, err := store.Get([]byte("member"))
	require.NoError(t, err)
	assert.Equal(t, []byte("7"), got)

	require.NoError(t, store.Delete([]byte("member")))
	_, err = store.Get([]byte("member"))
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, store.Delete([]byte("never-written")))
}

func TestClosedStore(t *testing.T) {
	store, err := NewKVStore()
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = store.Get([]byte("k"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, store.Put([]byte("k"), []byte("v")), ErrClosed)
	assert.ErrorIs(t, store.Delete([]byte("k")), ErrClosed)
	assert.NoError(t, store.Close(), "closing twice is allowed")
}

func TestIteratorRanges(t *testing.T) {
	store := newMemStore(t)
	for _, k := range []string{"d", "a", "c", "e", "b"} {
		require.NoError(t, store.Put([]byte(k), []byte(k+k)))
	}

	tests := []struct {
		name       string
		start, end []byte
		want       []string
	}{
		{"open", nil, nil, []string{"a=aa", "b=bb", "c=cc", "d=dd", "e=ee"}},
		{"half open", []byte("b"), []byte("e"), []string{"b=bb", "c=cc", "d=dd"}},
		{"open end", []byte("d"), nil, []string{"d=dd", "e=ee"}},
		{"empty", []byte("x"), []byte("z"), nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, collect(t, store, tc.start, tc.end))
		})
	}
}

// Big-endian numbers sort numerically, which the points index relies on.
func TestIteratorOrdersBigEndianKeys(t *testing.T) {
	store := newMemStore(t)
	for _, n := range []uint64{300, 2, 1 << 40, 17} {
		key := binary.BigEndian.AppendUint64([]byte{0x02}, n)
		require.NoError(t, store.Put(key, nil))
	}

	iter, err := store.NewIterator([]byte{0x02}, []byte{0x03})
	require.NoError(t, err)
	defer iter.Close() //nolint:errcheck

	var got []uint64
	for iter.Next() {
		got = append(got, binary.BigEndian.Uint64(iter.Key()[1:]))
	}
	assert.Equal(t, []uint64{2, 17, 300, 1 << 40}, got)
}

func TestIteratorValidity(t *testing.T) {
	store := newMemStore(t)
	require.NoError(t, store.Put([]byte("only"), []byte("one")))

	iter, err := store.NewIterator(nil, nil)
	require.NoError(t, err)
	defer iter.Close() //nolint:errcheck

	assert.False(t, iter.Valid())
	require.True(t, iter.Next())
	assert.True(t, iter.Valid())
	assert.Equal(t, []byte("only"), iter.Key())

	assert.False(t, iter.Next())
	assert.False(t, iter.Valid())
	_, err = iter.Value()
	assert.ErrorIs(t, err, ErrIteratorInvalid)
	assert.False(t, iter.Next(), "exhausted iterators stay exhausted")
}

func TestOpenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pebble")
	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Put([]byte("height"), []byte{9}))
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close() //nolint:errcheck
	got, err := store.Get([]byte("height"))
	require.NoError(t, err)
	assert.Equal(t, []byte{9}, got)
}
