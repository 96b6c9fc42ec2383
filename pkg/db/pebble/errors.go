package pebble

import (
	"errors"

	"github.com/eigerco/poe/pkg/db"
)

const (
	ErrInIteratorCreation = "pebble: create iterator: %w"
	ErrIteratorValue      = "pebble: iterator value: %w"
)

var (
	ErrClosed          = errors.New("pebble: database is closed")
	ErrNotFound        = db.ErrNotFound
	ErrBatchDone       = errors.New("pebble: batch already committed or closed")
	ErrIteratorInvalid = errors.New("pebble: iterator is not positioned on a key")
)
