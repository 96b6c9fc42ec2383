package group

import "errors"

var (
	ErrUnauthorized   = errors.New("group: unauthorized")
	ErrInvalidMember  = errors.New("group: invalid member")
	ErrNoPreauth      = errors.New("group: no preauthorization left")
	ErrInvalidPortion = errors.New("group: portion must be in (0, 1]")
)
