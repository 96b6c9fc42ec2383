package registry

import "github.com/eigerco/poe/internal/group"

var (
	// ErrUnauthorized is shared with every points source.
	ErrUnauthorized   = group.ErrUnauthorized
	ErrNoPreauth      = group.ErrNoPreauth
	ErrInvalidPortion = group.ErrInvalidPortion
)
