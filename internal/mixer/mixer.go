// Package mixer implements the merge combinator: a points source whose
// points are derived from two other sources by a merge function and kept
// up to date through their change hooks.
package mixer

import (
	"errors"
	"fmt"

	"github.com/eigerco/poe/internal/address"
	"github.com/eigerco/poe/internal/chain"
	"github.com/eigerco/poe/internal/group"
	"github.com/eigerco/poe/internal/store"
	"github.com/eigerco/poe/pkg/db"
	"github.com/eigerco/poe/pkg/log"
)

const Kind chain.Kind = "mixer"

const subSources byte = 'g'

type Mixer struct{}

func New() Mixer {
	return Mixer{}
}

func (Mixer) PointSource() {}

func sourcesKey(contract address.Address) []byte {
	return store.ContractNamespace(contract).Key(subSources)
}

func loadSources(r db.Reader, contract address.Address) (SourcesResponse, error) {
	v, err := r.Get(sourcesKey(contract))
	if err != nil {
		return SourcesResponse{}, fmt.Errorf("load sources: %w", err)
	}
	d := store.NewDecoder(v)
	s := SourcesResponse{
		Left:     address.Address(d.String()),
		Right:    address.Address(d.String()),
		Function: Function(d.Uint64()),
	}
	return s, d.Err()
}

func saveSources(w db.Writer, contract address.Address, s SourcesResponse) error {
	enc := (&store.Encoder{}).
		String(s.Left.String()).
		String(s.Right.String()).
		Uint64(uint64(s.Function))
	return w.Put(sourcesKey(contract), enc.Bytes())
}

func (Mixer) Instantiate(ctx *chain.Context, msg any) error {
	m, ok := msg.(Instantiate)
	if !ok {
		return chain.UnknownMessage(Kind, msg)
	}
	if m.Left == m.Right {
		return fmt.Errorf("%w: left and right are both %s", ErrInvalidSource, m.Left)
	}
	for _, src := range []address.Address{m.Left, m.Right} {
		if src == ctx.Contract {
			return fmt.Errorf("%w: mixer cannot read itself", ErrInvalidSource)
		}
		_, impl, err := ctx.Lookup(src)
		if errors.Is(err, chain.ErrUnknownContract) {
			return fmt.Errorf("%w: %w", ErrInvalidSource, err)
		}
		if err != nil {
			return err
		}
		if !group.IsSource(impl) {
			return fmt.Errorf("%w: %s is not a points source", ErrInvalidSource, src)
		}
	}
	if _, err := m.Function.Apply(0, 0); err != nil {
		return err
	}

	sources := SourcesResponse{Left: m.Left, Right: m.Right, Function: m.Function}
	if err := saveSources(ctx.Store, ctx.Contract, sources); err != nil {
		return err
	}
	if err := group.NewAdmin(ctx.Contract).Set(ctx.Store, m.Admin); err != nil {
		return fmt.Errorf("set admin: %w", err)
	}
	if err := group.NewPreauth(ctx.Contract, group.PreauthHooks).Set(ctx.Store, m.PreauthHooks); err != nil {
		return err
	}
	for _, src := range []address.Address{m.Left, m.Right} {
		if _, err := ctx.Call(src, group.AddHook{Addr: ctx.Contract}); err != nil {
			return fmt.Errorf("subscribe to %s: %w", src, err)
		}
	}

	// Merging with an absent member yields zero, so the left members are
	// the only candidates.
	left, err := group.NewMembers(m.Left).All(ctx.Store)
	if err != nil {
		return err
	}
	addrs := make([]address.Address, len(left))
	for i, member := range left {
		addrs[i] = member.Addr
	}
	_, err = recompute(ctx, sources, addrs)
	return err
}

func (mx Mixer) Execute(ctx *chain.Context, msg any) (*chain.Response, error) {
	switch m := msg.(type) {
	case group.MemberChangedHookMsg:
		return mx.OnMemberChanged(ctx, m)
	case group.AddHook:
		return mx.addHook(ctx, m)
	case group.RemoveHook:
		return group.ExecuteRemoveHook(ctx, m)
	case group.UpdateAdmin:
		return group.ExecuteUpdateAdmin(ctx, m)
	default:
		return nil, chain.UnknownMessage(Kind, msg)
	}
}

func (Mixer) Query(q *chain.QueryContext, msg any) (any, error) {
	if res, handled, err := group.Query(q, msg); handled {
		return res, err
	}
	switch msg.(type) {
	case SourcesQuery:
		return loadSources(q.Store, q.Contract)
	default:
		return nil, chain.UnknownMessage(Kind, msg)
	}
}

// OnMemberChanged re-reads both sources for every changed identity and
// republishes the merged points that moved.
func (Mixer) OnMemberChanged(ctx *chain.Context, msg group.MemberChangedHookMsg) (*chain.Response, error) {
	sources, err := loadSources(ctx.Store, ctx.Contract)
	if err != nil {
		return nil, err
	}
	if ctx.Sender != sources.Left && ctx.Sender != sources.Right {
		return nil, fmt.Errorf("%w: notification from %s", ErrInvalidSource, ctx.Sender)
	}
	addrs := make([]address.Address, len(msg.Diffs))
	for i, d := range msg.Diffs {
		addrs[i] = d.Addr
	}
	diffs, err := recompute(ctx, sources, addrs)
	if err != nil {
		return nil, err
	}
	if err := group.Notify(ctx, diffs); err != nil {
		return nil, err
	}
	return chain.NewResponse("update_members").
		Add("source", ctx.Sender).
		Add("changed", len(diffs)), nil
}

// recompute stores the merged points of addrs and returns the entries
// that changed.
func recompute(ctx *chain.Context, sources SourcesResponse, addrs []address.Address) ([]group.MemberDiff, error) {
	members := group.NewMembers(ctx.Contract)
	var diffs []group.MemberDiff
	for _, addr := range addrs {
		left, err := group.PointsOf(ctx.Store, sources.Left, addr)
		if err != nil {
			return nil, err
		}
		right, err := group.PointsOf(ctx.Store, sources.Right, addr)
		if err != nil {
			return nil, err
		}
		merged, err := sources.Function.Apply(left, right)
		if err != nil {
			return nil, fmt.Errorf("merge %s: %w", addr, err)
		}
		diff, err := members.Set(ctx.Store, ctx.Env.Height, addr, merged)
		if err != nil {
			return nil, err
		}
		if diff.Old == diff.New {
			continue
		}
		log.Mixer.Debug().
			Str("mixer", ctx.Contract.String()).
			Str("member", addr.String()).
			Uint64("left", left).
			Uint64("right", right).
			Uint64("merged", merged).
			Msg("merged points changed")
		diffs = append(diffs, diff)
	}
	return diffs, nil
}

// addHook refuses any hook that feeds this mixer, directly or through
// other mixers, since its notifications would come back around.
func (Mixer) addHook(ctx *chain.Context, m group.AddHook) (*chain.Response, error) {
	upstream, err := isUpstream(ctx, ctx.Contract, m.Addr)
	if err != nil {
		return nil, err
	}
	if upstream {
		return nil, fmt.Errorf("%w: %s feeds %s", chain.ErrHookCycle, m.Addr, ctx.Contract)
	}
	return group.ExecuteAddHook(ctx, m)
}

func isUpstream(ctx *chain.Context, mixer, candidate address.Address) (bool, error) {
	sources, err := loadSources(ctx.Store, mixer)
	if err != nil {
		return false, err
	}
	for _, src := range []address.Address{sources.Left, sources.Right} {
		if src == candidate {
			return true, nil
		}
		kind, _, err := ctx.Lookup(src)
		if err != nil {
			return false, err
		}
		if kind != Kind {
			continue
		}
		found, err := isUpstream(ctx, src, candidate)
		if err != nil || found {
			return found, err
		}
	}
	return false, nil
}
