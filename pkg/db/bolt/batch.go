package bolt

import (
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/eigerco/poe/pkg/db"
)

// Batch is a bbolt write transaction. Nothing is visible to other readers
// until Commit.
type Batch struct {
	tx   *bbolt.Tx
	err  error
	done bool
}

func (s *KVStore) NewBatch() db.Batch {
	if s.closed.Load() {
		return &Batch{err: ErrClosed, done: true}
	}
	tx, err := s.db.Begin(true)
	if err != nil {
		return &Batch{err: fmt.Errorf("bolt: begin write tx: %w", err), done: true}
	}
	return &Batch{tx: tx}
}

func (b *Batch) check() error {
	if b.err != nil {
		return b.err
	}
	if b.done {
		return ErrBatchDone
	}
	return nil
}

func (b *Batch) Get(key []byte) ([]byte, error) {
	if err := b.check(); err != nil {
		return nil, err
	}
	v := b.tx.Bucket(bucketState).Get(key)
	if v == nil {
		return nil, ErrNotFound
	}
	result := make([]byte, len(v))
	copy(result, v)
	return result, nil
}

func (b *Batch) NewIterator(start, end []byte) (db.Iterator, error) {
	if err := b.check(); err != nil {
		return nil, err
	}
	return newIterator(b.tx, false, start, end), nil
}

func (b *Batch) Put(key, value []byte) error {
	if err := b.check(); err != nil {
		return err
	}
	return b.tx.Bucket(bucketState).Put(key, value)
}

func (b *Batch) Delete(key []byte) error {
	if err := b.check(); err != nil {
		return err
	}
	return b.tx.Bucket(bucketState).Delete(key)
}

func (b *Batch) Commit() error {
	if err := b.check(); err != nil {
		return err
	}
	b.done = true
	return b.tx.Commit()
}

func (b *Batch) Close() error {
	if b.done {
		return nil
	}
	b.done = true
	return b.tx.Rollback()
}
