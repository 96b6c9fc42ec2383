package ledger

import (
	"github.com/holiman/uint256"

	"github.com/eigerco/poe/internal/address"
	"github.com/eigerco/poe/internal/bank"
	"github.com/eigerco/poe/internal/decimal"
)

// Instantiate binds a ledger to a points source. The ledger subscribes
// itself to the source, so it needs the source's admin rights or a preauth.
type Instantiate struct {
	Group address.Address
	Denom string
}

// Messages.
type (
	// Distribute moves Amount from the sender into the ledger and splits it
	// between the group members by points.
	Distribute struct {
		Amount bank.Coin
	}
	// Withdraw pays out the rewards of Owner (default: sender) to Receiver
	// (default: sender). The sender must be the owner or its delegate.
	Withdraw struct {
		Owner    *address.Address
		Receiver *address.Address
	}
	// DelegateWithdrawal lets Delegated withdraw the sender's rewards.
	DelegateWithdrawal struct {
		Delegated address.Address
	}
)

// Queries.
type (
	WithdrawableQuery struct {
		Owner address.Address
	}

	DelegatedQuery struct {
		Owner address.Address
	}

	AdjustmentQuery struct {
		Owner address.Address
	}

	DistributedRewardsQuery   struct{}
	UndistributedRewardsQuery struct{}
	DistributionDataQuery     struct{}
	ConfigQuery               struct{}
)

type Config struct {
	Group address.Address
	Denom string
}

// Distribution is the global accumulator.
type Distribution struct {
	Denom string
	// PointsPerPoint is the reward accrued by one point since the ledger
	// was created.
	PointsPerPoint decimal.Decimal
	// Leftover is the scaled remainder of the last division by total points.
	Leftover uint64
	// Pending holds rewards distributed while nobody had points.
	Pending uint256.Int
	// DistributedTotal is everything ever distributed to members.
	DistributedTotal uint256.Int
	// WithdrawableTotal is distributed but not yet withdrawn.
	WithdrawableTotal uint256.Int
}

// Adjustment is the per member correction record. It is never deleted.
type Adjustment struct {
	Correction decimal.Signed
	Withdrawn  uint256.Int
	Delegated  address.Address
}
