package ledger

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/eigerco/poe/internal/address"
	"github.com/eigerco/poe/internal/decimal"
	"github.com/eigerco/poe/internal/store"
	"github.com/eigerco/poe/pkg/db"
)

const (
	subConfig       byte = 'c'
	subDistribution byte = 'd'
	subAdjustment   byte = 'w'
)

func loadConfig(r db.Reader, contract address.Address) (Config, error) {
	v, err := r.Get(store.ContractNamespace(contract).Key(subConfig))
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	d := store.NewDecoder(v)
	cfg := Config{Group: address.Address(d.String()), Denom: d.String()}
	return cfg, d.Err()
}

func saveConfig(w db.Writer, contract address.Address, cfg Config) error {
	enc := (&store.Encoder{}).String(cfg.Group.String()).String(cfg.Denom)
	return w.Put(store.ContractNamespace(contract).Key(subConfig), enc.Bytes())
}

func loadDistribution(r db.Reader, contract address.Address) (Distribution, error) {
	v, err := r.Get(store.ContractNamespace(contract).Key(subDistribution))
	if err != nil {
		return Distribution{}, fmt.Errorf("load distribution: %w", err)
	}
	d := store.NewDecoder(v)
	dist := Distribution{
		Denom:          d.String(),
		PointsPerPoint: decimal.FromBytes32(d.Bytes32()),
		Leftover:       d.Uint64(),
	}
	dist.Pending.SetBytes32(d.Bytes32())
	dist.DistributedTotal.SetBytes32(d.Bytes32())
	dist.WithdrawableTotal.SetBytes32(d.Bytes32())
	return dist, d.Err()
}

func saveDistribution(w db.Writer, contract address.Address, dist Distribution) error {
	enc := (&store.Encoder{}).
		String(dist.Denom).
		Bytes32(dist.PointsPerPoint.Bytes32()).
		Uint64(dist.Leftover).
		Bytes32(dist.Pending.Bytes32()).
		Bytes32(dist.DistributedTotal.Bytes32()).
		Bytes32(dist.WithdrawableTotal.Bytes32())
	return w.Put(store.ContractNamespace(contract).Key(subDistribution), enc.Bytes())
}

// loadAdjustment returns the zero adjustment, delegated to owner, when the
// owner has none yet.
func loadAdjustment(r db.Reader, contract, owner address.Address) (Adjustment, error) {
	v, ok, err := store.Get(r, store.ContractNamespace(contract).Key(subAdjustment, owner.Bytes()))
	if err != nil {
		return Adjustment{}, fmt.Errorf("load adjustment %s: %w", owner, err)
	}
	if !ok {
		return Adjustment{Delegated: owner}, nil
	}
	d := store.NewDecoder(v)
	adj := Adjustment{Correction: decimal.SignedFromBytes32(d.Bytes32())}
	adj.Withdrawn.SetBytes32(d.Bytes32())
	adj.Delegated = address.Address(d.String())
	return adj, d.Err()
}

func saveAdjustment(w db.Writer, contract, owner address.Address, adj Adjustment) error {
	enc := (&store.Encoder{}).
		Bytes32(adj.Correction.Bytes32()).
		Bytes32(adj.Withdrawn.Bytes32()).
		String(adj.Delegated.String())
	return w.Put(store.ContractNamespace(contract).Key(subAdjustment, owner.Bytes()), enc.Bytes())
}

// accrue adds amount plus anything pending to the accumulator. With no
// points to split over, it parks everything in Pending and reports
// errInsufficientTotalPoints.
func (dist *Distribution) accrue(amount *uint256.Int, total uint64) error {
	sum, overflow := new(uint256.Int).AddOverflow(amount, &dist.Pending)
	if overflow {
		return ErrOverflow
	}
	if total == 0 {
		dist.Pending = *sum
		return errInsufficientTotalPoints
	}
	if sum.IsZero() {
		return nil
	}
	numer, overflow := new(uint256.Int).MulOverflow(sum, decimal.One())
	if overflow {
		return ErrOverflow
	}
	if _, overflow := numer.AddOverflow(numer, uint256.NewInt(dist.Leftover)); overflow {
		return ErrOverflow
	}
	share, rem := new(uint256.Int).DivMod(numer, uint256.NewInt(total), new(uint256.Int))
	ppp, err := dist.PointsPerPoint.Add(decimal.FromRaw(share))
	if err != nil {
		return ErrOverflow
	}
	if _, overflow := dist.DistributedTotal.AddOverflow(&dist.DistributedTotal, sum); overflow {
		return ErrOverflow
	}
	if _, overflow := dist.WithdrawableTotal.AddOverflow(&dist.WithdrawableTotal, sum); overflow {
		return ErrOverflow
	}
	dist.PointsPerPoint = ppp
	dist.Leftover = rem.Uint64()
	dist.Pending.Clear()
	return nil
}

// withdrawable is floor((points*ppp - correction) / 10^18) - withdrawn,
// clamped at zero.
func (dist *Distribution) withdrawable(points uint64, adj Adjustment) (*uint256.Int, error) {
	accrued, err := dist.PointsPerPoint.MulUint64(points)
	if err != nil {
		return nil, ErrOverflow
	}
	entitled, err := adj.Correction.SubtractFrom(accrued)
	if err != nil {
		return nil, ErrOverflow
	}
	if entitled.IsNegative() {
		return new(uint256.Int), nil
	}
	amount := decimal.Floor(entitled.Abs())
	if amount.Lt(&adj.Withdrawn) {
		return new(uint256.Int), nil
	}
	return amount.Sub(amount, &adj.Withdrawn), nil
}

// applyChange keeps the owner's withdrawable amount unchanged across a
// change of points.
func (dist *Distribution) applyChange(adj *Adjustment, from, to uint64) error {
	var (
		correction decimal.Signed
		err        error
	)
	switch {
	case to > from:
		correction, err = adj.Correction.AddProduct(to-from, dist.PointsPerPoint)
	case to < from:
		correction, err = adj.Correction.SubProduct(from-to, dist.PointsPerPoint)
	default:
		return nil
	}
	if err != nil {
		return ErrOverflow
	}
	adj.Correction = correction
	return nil
}
