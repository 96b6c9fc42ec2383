package registry

import (
	"time"

	"github.com/eigerco/poe/internal/address"
	"github.com/eigerco/poe/internal/group"
)

// Instantiate configures a new registry.
type Instantiate struct {
	Admin   *address.Address
	Members []group.Member
	// PreauthHooks is how many hooks may be added by someone other than the admin.
	PreauthHooks uint64
	// PreauthSlashing is the same allowance for slashers.
	PreauthSlashing uint64
	// Halflife, when non zero, halves every member's points once per period.
	Halflife time.Duration
}

// Messages.
type (
	SetPoints struct {
		Addr   address.Address
		Points uint64
	}
	AddPoints struct {
		Addr   address.Address
		Points uint64
	}
	// UpdateMembers applies Add first, then Remove, and notifies hooks once.
	UpdateMembers struct {
		Add    []group.Member
		Remove []address.Address
	}
	AddSlasher    = group.AddSlasher
	RemoveSlasher = group.RemoveSlasher
	Slash         = group.Slash
)

// Queries.
type (
	PreauthsQuery     = group.PreauthsQuery
	IsSlasherQuery    = group.IsSlasherQuery
	ListSlashersQuery = group.ListSlashersQuery
	HalflifeQuery     struct{}
)

type PreauthsResponse = group.PreauthsResponse

type HalflifeResponse struct {
	Halflife    time.Duration
	LastApplied time.Time
}
