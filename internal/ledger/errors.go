package ledger

import (
	"errors"

	"github.com/eigerco/poe/internal/group"
	"github.com/eigerco/poe/internal/safemath"
)

var (
	ErrUnauthorized      = group.ErrUnauthorized
	ErrOverflow          = safemath.ErrOverflow
	ErrNothingToWithdraw = errors.New("ledger: nothing to withdraw")
	ErrInvalidDenom      = errors.New("ledger: invalid denom")
	ErrInvalidSource     = errors.New("ledger: invalid source")
	// errInsufficientTotalPoints never leaves the package: a distribution
	// over zero points is parked as pending instead.
	errInsufficientTotalPoints = errors.New("ledger: insufficient total points")
)
