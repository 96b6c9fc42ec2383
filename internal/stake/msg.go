package stake

import (
	"time"

	"github.com/holiman/uint256"

	"github.com/eigerco/poe/internal/address"
	"github.com/eigerco/poe/internal/bank"
	"github.com/eigerco/poe/internal/group"
)

// Instantiate configures a bonded stake source.
type Instantiate struct {
	Admin *address.Address
	Denom string
	// TokensPerPoint converts bonded tokens into points. Zero counts as 1.
	TokensPerPoint uint64
	// MinBond is the smallest stake that earns points. Zero counts as 1, so
	// an empty stake is never a member.
	MinBond         uint256.Int
	UnbondingPeriod time.Duration
	// AutoReturnLimit is how many matured claims EndBlock pays out per
	// block. Zero leaves claiming to the stakers.
	AutoReturnLimit uint64
	PreauthHooks    uint64
	PreauthSlashing uint64
}

// Messages.
type (
	// Bond moves Amount from the sender into the contract and adds it to
	// the sender's stake.
	Bond struct {
		Amount bank.Coin
	}
	// Unbond takes Amount off the sender's stake and turns it into a claim
	// released after the unbonding period.
	Unbond struct {
		Amount bank.Coin
	}
	// Claim pays out the sender's matured claims.
	Claim struct{}

	AddSlasher    = group.AddSlasher
	RemoveSlasher = group.RemoveSlasher
	Slash         = group.Slash
)

// Queries.
type (
	// StakedQuery answers with the bank.Coin bonded by Addr.
	StakedQuery struct {
		Addr address.Address
	}
	ClaimsQuery struct {
		Addr address.Address
		// StartAfter skips claims released at or before it.
		StartAfter *time.Time
		Limit      uint32
	}
	ConfigQuery struct{}
)

type Config struct {
	Denom           string
	TokensPerPoint  uint64
	MinBond         uint256.Int
	UnbondingPeriod time.Duration
	AutoReturnLimit uint64
}

// PendingClaim is unbonded stake waiting for its release time. Unbonding
// twice with the same release time adds to one claim.
type PendingClaim struct {
	Addr           address.Address
	Amount         uint256.Int
	ReleaseAt      time.Time
	CreationHeight uint64
}
