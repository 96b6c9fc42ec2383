package bolt

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/poe/pkg/db"
)

func newTestStore(t *testing.T) *KVStore {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestKVStore(t *testing.T) {
	tests := []struct {
		name string
		fn   func(t *testing.T, store db.KVStore)
	}{
		{name: "basic_put_get", fn: testBasicPutGet},
		{name: "bounded_iteration", fn: testBoundedIteration},
		{name: "batch_commit", fn: testBatchCommit},
		{name: "batch_rollback", fn: testBatchRollback},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, newTestStore(t))
		})
	}
}

func testBasicPutGet(t *testing.T, store db.KVStore) {
	require.NoError(t, store.Put([]byte("k"), []byte("v")))

	got, err := store.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, store.Delete([]byte("k")))
	_, err = store.Get([]byte("k"))
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func testBoundedIteration(t *testing.T, store db.KVStore) {
	for _, k := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, store.Put([]byte(k), []byte("value-"+k)))
	}

	iter, err := store.NewIterator([]byte("b"), []byte("e"))
	require.NoError(t, err)
	defer iter.Close() //nolint:errcheck

	assert.False(t, iter.Valid())
	var keys []string
	for iter.Next() {
		v, err := iter.Value()
		require.NoError(t, err)
		assert.Equal(t, "value-"+string(iter.Key()), string(v))
		keys = append(keys, string(iter.Key()))
	}
	assert.Equal(t, []string{"b", "c", "d"}, keys)
	assert.False(t, iter.Next())

	_, err = iter.Value()
	assert.ErrorIs(t, err, ErrIteratorInvalid)
}

func testBatchCommit(t *testing.T, store db.KVStore) {
	require.NoError(t, store.Put([]byte("x"), []byte("1")))

	batch := store.NewBatch()
	require.NoError(t, batch.Put([]byte("y"), []byte("2")))
	require.NoError(t, batch.Delete([]byte("x")))

	got, err := batch.Get([]byte("y"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), got)
	_, err = batch.Get([]byte("x"))
	assert.ErrorIs(t, err, db.ErrNotFound)

	require.NoError(t, batch.Commit())
	assert.ErrorIs(t, batch.Commit(), ErrBatchDone)
	assert.NoError(t, batch.Close())

	got, err = store.Get([]byte("y"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), got)
	_, err = store.Get([]byte("x"))
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func testBatchRollback(t *testing.T, store db.KVStore) {
	batch := store.NewBatch()
	require.NoError(t, batch.Put([]byte("y"), []byte("2")))
	require.NoError(t, batch.Close())

	_, err := store.Get([]byte("y"))
	assert.ErrorIs(t, err, db.ErrNotFound)
	assert.ErrorIs(t, batch.Put([]byte("z"), []byte("3")), ErrBatchDone)
}

func TestKVStoreClosed(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Close())

	_, err := store.Get([]byte("k"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, store.Put([]byte("k"), []byte("v")), ErrClosed)
	assert.ErrorIs(t, store.NewBatch().Commit(), ErrClosed)
	assert.NoError(t, store.Close())
}
