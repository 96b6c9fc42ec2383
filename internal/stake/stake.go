// Package stake implements the bonded stake points source: members earn
// points for tokens they bond, unbonded tokens wait in claims for the
// unbonding period, and slashers burn a portion of both.
package stake

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/eigerco/poe/internal/address"
	"github.com/eigerco/poe/internal/bank"
	"github.com/eigerco/poe/internal/chain"
	"github.com/eigerco/poe/internal/group"
	"github.com/eigerco/poe/pkg/log"
)

const Kind chain.Kind = "stake"

type Stake struct{}

func New() Stake {
	return Stake{}
}

// PointSource marks stake as readable through group.PointsOf.
func (Stake) PointSource() {}

func (Stake) Instantiate(ctx *chain.Context, msg any) error {
	m, ok := msg.(Instantiate)
	if !ok {
		return chain.UnknownMessage(Kind, msg)
	}
	if err := bank.ValidateDenom(m.Denom); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDenom, err)
	}
	if err := group.NewAdmin(ctx.Contract).Set(ctx.Store, m.Admin); err != nil {
		return fmt.Errorf("set admin: %w", err)
	}
	if err := group.NewPreauth(ctx.Contract, group.PreauthHooks).Set(ctx.Store, m.PreauthHooks); err != nil {
		return err
	}
	if err := group.NewPreauth(ctx.Contract, group.PreauthSlashing).Set(ctx.Store, m.PreauthSlashing); err != nil {
		return err
	}
	cfg := Config{
		Denom:           m.Denom,
		TokensPerPoint:  max(m.TokensPerPoint, 1),
		MinBond:         m.MinBond,
		UnbondingPeriod: m.UnbondingPeriod,
		AutoReturnLimit: m.AutoReturnLimit,
	}
	if cfg.MinBond.IsZero() {
		cfg.MinBond.SetOne()
	}
	return saveConfig(ctx.Store, ctx.Contract, cfg)
}

func (s Stake) Execute(ctx *chain.Context, msg any) (*chain.Response, error) {
	switch m := msg.(type) {
	case Bond:
		return s.bond(ctx, m)
	case Unbond:
		return s.unbond(ctx, m)
	case Claim:
		return s.claim(ctx)
	case group.AddHook:
		return group.ExecuteAddHook(ctx, m)
	case group.RemoveHook:
		return group.ExecuteRemoveHook(ctx, m)
	case group.UpdateAdmin:
		return group.ExecuteUpdateAdmin(ctx, m)
	case AddSlasher:
		return group.ExecuteAddSlasher(ctx, m)
	case RemoveSlasher:
		return group.ExecuteRemoveSlasher(ctx, m)
	case Slash:
		return s.slash(ctx, m)
	default:
		return nil, chain.UnknownMessage(Kind, msg)
	}
}

func (Stake) Query(q *chain.QueryContext, msg any) (any, error) {
	if res, handled, err := group.Query(q, msg); handled {
		return res, err
	}
	if res, handled, err := group.QuerySlashing(q, msg); handled {
		return res, err
	}
	cfg, err := loadConfig(q.Store, q.Contract)
	if err != nil {
		return nil, err
	}
	switch m := msg.(type) {
	case StakedQuery:
		bonded, err := Bonded(q.Store, q.Contract, m.Addr)
		if err != nil {
			return nil, err
		}
		return bank.Coin{Denom: cfg.Denom, Amount: *bonded}, nil
	case ClaimsQuery:
		return newClaims(q.Contract).of(q.Store, m.Addr, m.StartAfter, group.Limit(m.Limit))
	case ConfigQuery:
		return cfg, nil
	default:
		return nil, chain.UnknownMessage(Kind, msg)
	}
}

func checkDenom(cfg Config, coin bank.Coin) error {
	if coin.Denom != cfg.Denom {
		return fmt.Errorf("%w: got %q, bonds %q", ErrInvalidDenom, coin.Denom, cfg.Denom)
	}
	return nil
}

func (s Stake) bond(ctx *chain.Context, m Bond) (*chain.Response, error) {
	cfg, err := loadConfig(ctx.Store, ctx.Contract)
	if err != nil {
		return nil, err
	}
	if err := checkDenom(cfg, m.Amount); err != nil {
		return nil, err
	}
	if m.Amount.Amount.IsZero() {
		return nil, ErrNoFunds
	}
	if err := ctx.Bank().Send(ctx.Sender, ctx.Contract, m.Amount); err != nil {
		return nil, err
	}
	bonded, err := Bonded(ctx.Store, ctx.Contract, ctx.Sender)
	if err != nil {
		return nil, err
	}
	if _, overflow := bonded.AddOverflow(bonded, &m.Amount.Amount); overflow {
		return nil, fmt.Errorf("bond of %s: %w", ctx.Sender, ErrOverflow)
	}
	if err := saveBonded(ctx.Store, ctx.Contract, ctx.Sender, bonded); err != nil {
		return nil, err
	}
	if err := s.updateMembership(ctx, cfg, ctx.Sender, bonded); err != nil {
		return nil, err
	}
	return chain.NewResponse("bond").
		Add("sender", ctx.Sender).
		Add("amount", m.Amount.Amount.Dec()), nil
}

func (s Stake) unbond(ctx *chain.Context, m Unbond) (*chain.Response, error) {
	if m.Amount.Amount.IsZero() {
		return nil, ErrZeroAmount
	}
	cfg, err := loadConfig(ctx.Store, ctx.Contract)
	if err != nil {
		return nil, err
	}
	if err := checkDenom(cfg, m.Amount); err != nil {
		return nil, err
	}
	bonded, err := Bonded(ctx.Store, ctx.Contract, ctx.Sender)
	if err != nil {
		return nil, err
	}
	if bonded.Lt(&m.Amount.Amount) {
		return nil, fmt.Errorf("%w: %s has %s, unbonds %s", ErrInsufficientStake, ctx.Sender, bonded.Dec(), m.Amount.Amount.Dec())
	}
	bonded.Sub(bonded, &m.Amount.Amount)
	if err := saveBonded(ctx.Store, ctx.Contract, ctx.Sender, bonded); err != nil {
		return nil, err
	}
	releaseAt := ctx.Env.Time.Add(cfg.UnbondingPeriod)
	if err := newClaims(ctx.Contract).create(ctx.Store, ctx.Sender, &m.Amount.Amount, releaseAt, ctx.Env.Height); err != nil {
		return nil, err
	}
	if err := s.updateMembership(ctx, cfg, ctx.Sender, bonded); err != nil {
		return nil, err
	}
	return chain.NewResponse("unbond").
		Add("sender", ctx.Sender).
		Add("amount", m.Amount.Amount.Dec()).
		Add("denom", cfg.Denom).
		Add("completion_time", releaseAt.UnixNano()), nil
}

func (Stake) claim(ctx *chain.Context) (*chain.Response, error) {
	cfg, err := loadConfig(ctx.Store, ctx.Contract)
	if err != nil {
		return nil, err
	}
	c := newClaims(ctx.Contract)
	matured, err := c.matured(ctx.Store, ctx.Sender, ctx.Env.Time)
	if err != nil {
		return nil, err
	}
	released, err := release(ctx, cfg, c, matured)
	if err != nil {
		return nil, err
	}
	if released.IsZero() {
		return nil, ErrNothingToClaim
	}
	return chain.NewResponse("claim").
		Add("sender", ctx.Sender).
		Add("tokens", released.Dec()+cfg.Denom), nil
}

// release removes claims and pays each one out to its owner. It returns
// the total paid.
func release(ctx *chain.Context, cfg Config, c claims, list []PendingClaim) (*uint256.Int, error) {
	total := new(uint256.Int)
	for _, claim := range list {
		if err := c.remove(ctx.Store, claim); err != nil {
			return nil, err
		}
		coin := bank.Coin{Denom: cfg.Denom, Amount: claim.Amount}
		if err := ctx.Bank().Send(ctx.Contract, claim.Addr, coin); err != nil {
			return nil, fmt.Errorf("release claim of %s: %w", claim.Addr, err)
		}
		total.Add(total, &claim.Amount)
	}
	return total, nil
}

// EndBlock returns up to AutoReturnLimit matured claims, oldest first and
// never more than group.MaxLimit per block.
func (Stake) EndBlock(ctx *chain.Context) (*chain.Response, error) {
	cfg, err := loadConfig(ctx.Store, ctx.Contract)
	if err != nil {
		return nil, err
	}
	if cfg.AutoReturnLimit == 0 {
		return nil, nil
	}
	c := newClaims(ctx.Contract)
	expired, err := c.expired(ctx.Store, ctx.Env.Time, int(min(cfg.AutoReturnLimit, uint64(group.MaxLimit))))
	if err != nil {
		return nil, err
	}
	if len(expired) == 0 {
		return nil, nil
	}
	released, err := release(ctx, cfg, c, expired)
	if err != nil {
		return nil, err
	}
	log.Stake.Debug().
		Str("stake", ctx.Contract.String()).
		Uint64("height", ctx.Env.Height).
		Int("claims", len(expired)).
		Str("released", released.Dec()).
		Msg("claims returned")
	return chain.NewResponse("release_claims").
		Add("claims", len(expired)).
		Add("released", released.Dec()+cfg.Denom), nil
}

// slash burns floor(portion * amount) of the bonded stake and of every
// pending claim of m.Addr.
func (s Stake) slash(ctx *chain.Context, m Slash) (*chain.Response, error) {
	if err := group.AuthorizeSlash(ctx, m); err != nil {
		return nil, err
	}
	cfg, err := loadConfig(ctx.Store, ctx.Contract)
	if err != nil {
		return nil, err
	}
	bonded, err := Bonded(ctx.Store, ctx.Contract, m.Addr)
	if err != nil {
		return nil, err
	}
	slashed, err := m.Portion.MulFloorInt(bonded)
	if err != nil {
		return nil, err
	}
	bonded.Sub(bonded, slashed)
	if err := saveBonded(ctx.Store, ctx.Contract, m.Addr, bonded); err != nil {
		return nil, err
	}

	c := newClaims(ctx.Contract)
	pending, err := c.of(ctx.Store, m.Addr, nil, 0)
	if err != nil {
		return nil, err
	}
	for _, claim := range pending {
		cut, err := m.Portion.MulFloorInt(&claim.Amount)
		if err != nil {
			return nil, err
		}
		claim.Amount.Sub(&claim.Amount, cut)
		if claim.Amount.IsZero() {
			err = c.remove(ctx.Store, claim)
		} else {
			err = c.save(ctx.Store, claim)
		}
		if err != nil {
			return nil, err
		}
		slashed.Add(slashed, cut)
	}

	if !slashed.IsZero() {
		if err := ctx.Bank().Burn(ctx.Contract, bank.Coin{Denom: cfg.Denom, Amount: *slashed}); err != nil {
			return nil, fmt.Errorf("burn slashed stake: %w", err)
		}
	}
	if err := s.updateMembership(ctx, cfg, m.Addr, bonded); err != nil {
		return nil, err
	}
	return chain.NewResponse("slash").
		Add("sender", ctx.Sender).
		Add("addr", m.Addr).
		Add("portion", m.Portion).
		Add("slashed", slashed.Dec()), nil
}

// Points converts a stake into points: nothing below the minimum bond,
// whole multiples of TokensPerPoint above it.
func Points(cfg Config, stake *uint256.Int) (uint64, error) {
	if stake.Lt(&cfg.MinBond) {
		return 0, nil
	}
	points := new(uint256.Int).Div(stake, uint256.NewInt(max(cfg.TokensPerPoint, 1)))
	if !points.IsUint64() {
		return 0, fmt.Errorf("points for %s tokens: %w", stake.Dec(), ErrOverflow)
	}
	return points.Uint64(), nil
}

func (Stake) updateMembership(ctx *chain.Context, cfg Config, addr address.Address, stake *uint256.Int) error {
	points, err := Points(cfg, stake)
	if err != nil {
		return err
	}
	diff, err := group.NewMembers(ctx.Contract).Set(ctx.Store, ctx.Env.Height, addr, points)
	if err != nil {
		return err
	}
	if diff.Old != diff.New {
		log.Stake.Debug().
			Str("stake", ctx.Contract.String()).
			Str("member", addr.String()).
			Uint64("old", diff.Old).
			Uint64("new", diff.New).
			Msg("points changed")
	}
	return group.Notify(ctx, []group.MemberDiff{diff})
}
