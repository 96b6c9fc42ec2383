package db

import "errors"

// ErrNotFound is returned by every backend when a key is absent.
var ErrNotFound = errors.New("db: key not found")

// KVStore represents a key-value storage interface providing basic operations
// for data manipulation and ordered iteration.
type KVStore interface {
	Reader
	Writer
	Delete(key []byte) error
	NewBatch() Batch
	Close() error
}

// Reader is the read side shared by the store and by pending batches.
type Reader interface {
	Get(key []byte) ([]byte, error)
	// NewIterator iterates keys in [start, end) in ascending byte order.
	// A nil bound leaves that side open.
	NewIterator(start, end []byte) (Iterator, error)
}

type Writer interface {
	Put(key []byte, value []byte) error
}

// ReadWriter is the view of a pending batch handed to state transitions.
type ReadWriter interface {
	Reader
	Writer
	Delete(key []byte) error
}

// Batch represents an atomic batch of operations.
// All operations in a batch are performed atomically. Reads through a batch
// observe its own uncommitted writes. Closing a batch that was not committed
// discards it.
type Batch interface {
	ReadWriter
	Commit() error
	Close() error
}

// Iterator provides sequential access over a range of key-value pairs.
// Iterators must be closed after use.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() ([]byte, error)
	Valid() bool
	Close() error
}
