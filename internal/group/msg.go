// Package group holds the membership machinery shared by every points
// source: member storage with a by-points index, the running total, the
// ordered hook list and the change notification delivered to hooks.
package group

import (
	"github.com/eigerco/poe/internal/address"
	"github.com/eigerco/poe/internal/decimal"
)

// Member is one entry of a points source.
type Member struct {
	Addr   address.Address
	Points uint64
	// StartHeight is the height at which the member joined.
	StartHeight uint64
}

// MemberDiff records one member's points before and after a change.
// Zero stands for "not a member".
type MemberDiff struct {
	Addr address.Address
	Old  uint64
	New  uint64
}

// MemberChangedHookMsg is delivered to every hook after a membership change.
type MemberChangedHookMsg struct {
	Diffs []MemberDiff
}

// Messages accepted by every points source.
type (
	AddHook struct {
		Addr address.Address
	}
	RemoveHook struct {
		Addr address.Address
	}
	// UpdateAdmin replaces the admin. A nil Admin leaves the source without one.
	UpdateAdmin struct {
		Admin *address.Address
	}
)

// Queries answered by every points source.
type (
	MemberQuery struct {
		Addr address.Address
	}
	TotalPointsQuery struct{}

	ListMembersQuery struct {
		StartAfter address.Address
		Limit      uint32
	}
	ListMembersByPointsQuery struct {
		StartAfter *Member
		Limit      uint32
	}

	HooksQuery struct{}
	AdminQuery struct{}
)

// AdminResponse answers AdminQuery; Admin is nil when nobody administers
// the source.
type AdminResponse struct {
	Admin *address.Address
}

// Messages accepted by sources that can be slashed.
type (
	AddSlasher struct {
		Addr address.Address
	}
	RemoveSlasher struct {
		Addr address.Address
	}
	// Slash takes Portion of what Addr holds away.
	Slash struct {
		Addr    address.Address
		Portion decimal.Decimal
	}
)

// Queries answered by sources that can be slashed.
type (
	PreauthsQuery     struct{}
	IsSlasherQuery    struct{ Addr address.Address }
	ListSlashersQuery struct{}
)

// PreauthsResponse reports the allowances left for adding hooks and slashers.
type PreauthsResponse struct {
	Hooks    uint64
	Slashing uint64
}
