// Package bolt implements db.KVStore on a single bbolt bucket.
package bolt

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"go.etcd.io/bbolt"

	"github.com/eigerco/poe/pkg/db"
)

var (
	ErrClosed    = errors.New("bolt: database is closed")
	ErrNotFound  = db.ErrNotFound
	ErrBatchDone = errors.New("bolt: batch already committed or closed")
)

var bucketState = []byte("state")

// KVStore wraps a bbolt database. Only one batch may be open at a time
// because a batch holds the bbolt write transaction.
type KVStore struct {
	db     *bbolt.DB
	closed atomic.Bool
}

var _ db.KVStore = (*KVStore)(nil)

// Open opens or creates the bbolt database at path.
// The parent directory is created if it does not exist.
func Open(path string) (*KVStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("bolt: create directory: %w", err)
	}
	bdb, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("bolt: open db: %w", err)
	}
	err = bdb.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketState)
		return err
	})
	if err != nil {
		_ = bdb.Close()
		return nil, fmt.Errorf("bolt: create bucket: %w", err)
	}
	return &KVStore{db: bdb}, nil
}

func (s *KVStore) Get(key []byte) ([]byte, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	var result []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketState).Get(key)
		if v == nil {
			return ErrNotFound
		}
		result = make([]byte, len(v))
		copy(result, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *KVStore) Put(key, value []byte) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketState).Put(key, value)
	})
}

func (s *KVStore) Delete(key []byte) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketState).Delete(key)
	})
}

// NewIterator opens a read transaction that lives until the iterator is closed.
func (s *KVStore) NewIterator(start, end []byte) (db.Iterator, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	tx, err := s.db.Begin(false)
	if err != nil {
		return nil, fmt.Errorf("bolt: begin read tx: %w", err)
	}
	return newIterator(tx, true, start, end), nil
}

func (s *KVStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.db.Close()
}
