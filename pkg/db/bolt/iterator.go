package bolt

import (
	"bytes"
	"errors"

	"go.etcd.io/bbolt"
)

var ErrIteratorInvalid = errors.New("bolt: iterator is not positioned on a key")

type Iterator struct {
	tx         *bbolt.Tx
	ownsTx     bool
	cursor     *bbolt.Cursor
	start, end []byte
	key, value []byte
	started    bool
	valid      bool
}

func newIterator(tx *bbolt.Tx, ownsTx bool, start, end []byte) *Iterator {
	return &Iterator{
		tx:     tx,
		ownsTx: ownsTx,
		cursor: tx.Bucket(bucketState).Cursor(),
		start:  start,
		end:    end,
	}
}

func (it *Iterator) Next() bool {
	var k, v []byte
	switch {
	case !it.started:
		it.started = true
		if it.start == nil {
			k, v = it.cursor.First()
		} else {
			k, v = it.cursor.Seek(it.start)
		}
	case !it.valid:
		return false
	default:
		k, v = it.cursor.Next()
	}
	if k == nil || (it.end != nil && bytes.Compare(k, it.end) >= 0) {
		it.valid = false
		it.key, it.value = nil, nil
		return false
	}
	it.key = append([]byte(nil), k...)
	it.value = append([]byte(nil), v...)
	it.valid = true
	return true
}

func (it *Iterator) Key() []byte {
	return it.key
}

func (it *Iterator) Value() ([]byte, error) {
	if !it.valid {
		return nil, ErrIteratorInvalid
	}
	return it.value, nil
}

func (it *Iterator) Valid() bool {
	return it.valid
}

func (it *Iterator) Close() error {
	if it.ownsTx {
		it.ownsTx = false
		return it.tx.Rollback()
	}
	return nil
}
