package mixer

import (
	"errors"

	"github.com/eigerco/poe/internal/group"
	"github.com/eigerco/poe/internal/safemath"
)

var (
	ErrUnauthorized    = group.ErrUnauthorized
	ErrOverflow        = safemath.ErrOverflow
	ErrInvalidSource   = errors.New("mixer: invalid source")
	ErrInvalidFunction = errors.New("mixer: invalid merge function")
)
