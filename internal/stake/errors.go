package stake

import (
	"errors"

	"github.com/eigerco/poe/internal/group"
	"github.com/eigerco/poe/internal/safemath"
)

var (
	ErrUnauthorized      = group.ErrUnauthorized
	ErrInvalidPortion    = group.ErrInvalidPortion
	ErrOverflow          = safemath.ErrOverflow
	ErrInvalidDenom      = errors.New("stake: invalid denom")
	ErrNoFunds           = errors.New("stake: no funds sent")
	ErrZeroAmount        = errors.New("stake: amount must be positive")
	ErrInsufficientStake = errors.New("stake: not enough bonded tokens")
	ErrNothingToClaim    = errors.New("stake: no claims that can be released")
)
