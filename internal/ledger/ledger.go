// Package ledger implements the reward distribution ledger. Rewards are
// spread over the members of a points source in constant time per
// operation: a global points-per-point accumulator grows with every
// distribution, and each member carries a correction that cancels the
// effect of its own points changes on rewards already accrued.
package ledger

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/eigerco/poe/internal/address"
	"github.com/eigerco/poe/internal/bank"
	"github.com/eigerco/poe/internal/chain"
	"github.com/eigerco/poe/internal/group"
	"github.com/eigerco/poe/pkg/db"
	"github.com/eigerco/poe/pkg/log"
)

const Kind chain.Kind = "ledger"

type Ledger struct{}

func New() Ledger {
	return Ledger{}
}

func (Ledger) Instantiate(ctx *chain.Context, msg any) error {
	m, ok := msg.(Instantiate)
	if !ok {
		return chain.UnknownMessage(Kind, msg)
	}
	if err := bank.ValidateDenom(m.Denom); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDenom, err)
	}
	_, impl, err := ctx.Lookup(m.Group)
	if errors.Is(err, chain.ErrUnknownContract) {
		return fmt.Errorf("%w: %w", ErrInvalidSource, err)
	}
	if err != nil {
		return err
	}
	if !group.IsSource(impl) {
		return fmt.Errorf("%w: %s is not a points source", ErrInvalidSource, m.Group)
	}
	if err := saveConfig(ctx.Store, ctx.Contract, Config{Group: m.Group, Denom: m.Denom}); err != nil {
		return err
	}
	if err := saveDistribution(ctx.Store, ctx.Contract, Distribution{Denom: m.Denom}); err != nil {
		return err
	}
	if _, err := ctx.Call(m.Group, group.AddHook{Addr: ctx.Contract}); err != nil {
		return fmt.Errorf("subscribe to %s: %w", m.Group, err)
	}
	return nil
}

func (l Ledger) Execute(ctx *chain.Context, msg any) (*chain.Response, error) {
	switch m := msg.(type) {
	case Distribute:
		return l.distribute(ctx, m)
	case Withdraw:
		return l.withdraw(ctx, m)
	case DelegateWithdrawal:
		return l.delegate(ctx, m)
	case group.MemberChangedHookMsg:
		return l.OnMemberChanged(ctx, m)
	default:
		return nil, chain.UnknownMessage(Kind, msg)
	}
}

func (l Ledger) Query(q *chain.QueryContext, msg any) (any, error) {
	cfg, err := loadConfig(q.Store, q.Contract)
	if err != nil {
		return nil, err
	}
	switch m := msg.(type) {
	case WithdrawableQuery:
		amount, err := Withdrawable(q.Store, q.Contract, m.Owner)
		if err != nil {
			return nil, err
		}
		return bank.Coin{Denom: cfg.Denom, Amount: *amount}, nil
	case DistributedRewardsQuery:
		dist, err := loadDistribution(q.Store, q.Contract)
		if err != nil {
			return nil, err
		}
		return bank.Coin{Denom: cfg.Denom, Amount: dist.DistributedTotal}, nil
	case UndistributedRewardsQuery:
		dist, err := loadDistribution(q.Store, q.Contract)
		if err != nil {
			return nil, err
		}
		return bank.Coin{Denom: cfg.Denom, Amount: dist.Pending}, nil
	case DelegatedQuery:
		adj, err := loadAdjustment(q.Store, q.Contract, m.Owner)
		if err != nil {
			return nil, err
		}
		return adj.Delegated, nil
	case DistributionDataQuery:
		return loadDistribution(q.Store, q.Contract)
	case AdjustmentQuery:
		return loadAdjustment(q.Store, q.Contract, m.Owner)
	case ConfigQuery:
		return cfg, nil
	default:
		return nil, chain.UnknownMessage(Kind, msg)
	}
}

// Withdrawable computes what owner may withdraw from the ledger at contract.
func Withdrawable(r db.Reader, contract, owner address.Address) (*uint256.Int, error) {
	cfg, err := loadConfig(r, contract)
	if err != nil {
		return nil, err
	}
	dist, err := loadDistribution(r, contract)
	if err != nil {
		return nil, err
	}
	adj, err := loadAdjustment(r, contract, owner)
	if err != nil {
		return nil, err
	}
	points, err := group.PointsOf(r, cfg.Group, owner)
	if err != nil {
		return nil, err
	}
	return dist.withdrawable(points, adj)
}

func (Ledger) distribute(ctx *chain.Context, m Distribute) (*chain.Response, error) {
	cfg, err := loadConfig(ctx.Store, ctx.Contract)
	if err != nil {
		return nil, err
	}
	if m.Amount.Denom != cfg.Denom {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrInvalidDenom, m.Amount.Denom, cfg.Denom)
	}
	if err := ctx.Bank().Send(ctx.Sender, ctx.Contract, m.Amount); err != nil {
		return nil, err
	}
	dist, err := loadDistribution(ctx.Store, ctx.Contract)
	if err != nil {
		return nil, err
	}
	total, err := group.TotalOf(ctx.Store, cfg.Group)
	if err != nil {
		return nil, err
	}

	resp := chain.NewResponse("distribute").
		Add("sender", ctx.Sender).
		Add("amount", m.Amount)
	err = dist.accrue(&m.Amount.Amount, total)
	switch {
	case errors.Is(err, errInsufficientTotalPoints):
		log.Ledger.Debug().
			Str("ledger", ctx.Contract.String()).
			Str("pending", dist.Pending.Dec()).
			Msg("no points to distribute over, rewards kept pending")
		resp.Add("pending", dist.Pending.Dec())
	case err != nil:
		return nil, err
	default:
		log.Ledger.Debug().
			Str("ledger", ctx.Contract.String()).
			Str("amount", m.Amount.String()).
			Uint64("total_points", total).
			Str("points_per_point", dist.PointsPerPoint.String()).
			Msg("rewards distributed")
	}
	if err := saveDistribution(ctx.Store, ctx.Contract, dist); err != nil {
		return nil, err
	}
	return resp, nil
}

// OnMemberChanged folds points changes of the group into the owners'
// corrections. Only the configured group may call it.
func (Ledger) OnMemberChanged(ctx *chain.Context, msg group.MemberChangedHookMsg) (*chain.Response, error) {
	cfg, err := loadConfig(ctx.Store, ctx.Contract)
	if err != nil {
		return nil, err
	}
	if ctx.Sender != cfg.Group {
		return nil, fmt.Errorf("%w: notification from %s", ErrInvalidSource, ctx.Sender)
	}
	dist, err := loadDistribution(ctx.Store, ctx.Contract)
	if err != nil {
		return nil, err
	}
	for _, diff := range msg.Diffs {
		adj, err := loadAdjustment(ctx.Store, ctx.Contract, diff.Addr)
		if err != nil {
			return nil, err
		}
		if err := dist.applyChange(&adj, diff.Old, diff.New); err != nil {
			return nil, fmt.Errorf("correction for %s: %w", diff.Addr, err)
		}
		if err := saveAdjustment(ctx.Store, ctx.Contract, diff.Addr, adj); err != nil {
			return nil, err
		}
	}
	return chain.NewResponse("update_members").Add("changed", len(msg.Diffs)), nil
}

// withdraw reports a zero amount as a successful no-op so that retries
// are harmless.
func (Ledger) withdraw(ctx *chain.Context, m Withdraw) (*chain.Response, error) {
	owner := ctx.Sender
	if m.Owner != nil {
		owner = *m.Owner
	}
	receiver := ctx.Sender
	if m.Receiver != nil {
		receiver = *m.Receiver
	}
	resp := chain.NewResponse("withdraw").
		Add("sender", ctx.Sender).
		Add("owner", owner).
		Add("receiver", receiver)

	amount, err := withdrawRewards(ctx, owner, receiver)
	if errors.Is(err, ErrNothingToWithdraw) {
		return resp.Add("result", "nothing_to_withdraw").Add("amount", 0), nil
	}
	if err != nil {
		return nil, err
	}
	return resp.Add("result", "withdrawn").Add("amount", amount.Dec()), nil
}

// withdrawRewards pays everything owner may withdraw to receiver, failing
// with ErrNothingToWithdraw when that is zero.
func withdrawRewards(ctx *chain.Context, owner, receiver address.Address) (*uint256.Int, error) {
	if err := receiver.Validate(); err != nil {
		return nil, err
	}
	cfg, err := loadConfig(ctx.Store, ctx.Contract)
	if err != nil {
		return nil, err
	}
	adj, err := loadAdjustment(ctx.Store, ctx.Contract, owner)
	if err != nil {
		return nil, err
	}
	if ctx.Sender != owner && ctx.Sender != adj.Delegated {
		return nil, fmt.Errorf("%w: %s may not withdraw for %s", ErrUnauthorized, ctx.Sender, owner)
	}
	dist, err := loadDistribution(ctx.Store, ctx.Contract)
	if err != nil {
		return nil, err
	}
	points, err := group.PointsOf(ctx.Store, cfg.Group, owner)
	if err != nil {
		return nil, err
	}
	amount, err := dist.withdrawable(points, adj)
	if err != nil {
		return nil, err
	}
	if amount.IsZero() {
		return nil, ErrNothingToWithdraw
	}

	adj.Withdrawn.Add(&adj.Withdrawn, amount)
	if dist.WithdrawableTotal.Lt(amount) {
		return nil, fmt.Errorf("%w: withdrawing %s of %s", ErrOverflow, amount.Dec(), dist.WithdrawableTotal.Dec())
	}
	dist.WithdrawableTotal.Sub(&dist.WithdrawableTotal, amount)
	if err := saveAdjustment(ctx.Store, ctx.Contract, owner, adj); err != nil {
		return nil, err
	}
	if err := saveDistribution(ctx.Store, ctx.Contract, dist); err != nil {
		return nil, err
	}
	if err := ctx.Bank().Send(ctx.Contract, receiver, bank.Coin{Denom: cfg.Denom, Amount: *amount}); err != nil {
		return nil, err
	}
	log.Ledger.Debug().
		Str("ledger", ctx.Contract.String()).
		Str("owner", owner.String()).
		Str("receiver", receiver.String()).
		Str("amount", amount.Dec()).
		Msg("rewards withdrawn")
	return amount, nil
}

func (Ledger) delegate(ctx *chain.Context, m DelegateWithdrawal) (*chain.Response, error) {
	if err := m.Delegated.Validate(); err != nil {
		return nil, err
	}
	adj, err := loadAdjustment(ctx.Store, ctx.Contract, ctx.Sender)
	if err != nil {
		return nil, err
	}
	adj.Delegated = m.Delegated
	if err := saveAdjustment(ctx.Store, ctx.Contract, ctx.Sender, adj); err != nil {
		return nil, err
	}
	return chain.NewResponse("delegate_withdrawal").
		Add("sender", ctx.Sender).
		Add("delegated", m.Delegated), nil
}
