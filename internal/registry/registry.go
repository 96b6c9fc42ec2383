// Package registry implements the weighted registry: an admin controlled
// map of members to points that notifies its hooks on every change.
package registry

import (
	"fmt"

	"github.com/eigerco/poe/internal/chain"
	"github.com/eigerco/poe/internal/group"
	"github.com/eigerco/poe/internal/safemath"
	"github.com/eigerco/poe/pkg/log"
)

const Kind chain.Kind = "registry"

// Registry is stateless; all state lives under the contract's namespace.
type Registry struct{}

func New() Registry {
	return Registry{}
}

// PointSource marks the registry as readable through group.PointsOf.
func (Registry) PointSource() {}

func (Registry) Instantiate(ctx *chain.Context, msg any) error {
	m, ok := msg.(Instantiate)
	if !ok {
		return chain.UnknownMessage(Kind, msg)
	}
	if err := group.NewAdmin(ctx.Contract).Set(ctx.Store, m.Admin); err != nil {
		return fmt.Errorf("set admin: %w", err)
	}
	members := group.NewMembers(ctx.Contract)
	for _, member := range m.Members {
		if _, err := members.Set(ctx.Store, ctx.Env.Height, member.Addr, member.Points); err != nil {
			return fmt.Errorf("add member %s: %w", member.Addr, err)
		}
	}
	if err := group.NewPreauth(ctx.Contract, group.PreauthHooks).Set(ctx.Store, m.PreauthHooks); err != nil {
		return err
	}
	if err := group.NewPreauth(ctx.Contract, group.PreauthSlashing).Set(ctx.Store, m.PreauthSlashing); err != nil {
		return err
	}
	return saveHalflife(ctx.Store, ctx.Contract, HalflifeResponse{Halflife: m.Halflife, LastApplied: ctx.Env.Time})
}

func (r Registry) Execute(ctx *chain.Context, msg any) (*chain.Response, error) {
	switch m := msg.(type) {
	case SetPoints:
		return r.setPoints(ctx, m)
	case AddPoints:
		return r.addPoints(ctx, m)
	case UpdateMembers:
		return r.updateMembers(ctx, m)
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
		return r.slash(ctx, m)
	default:
		return nil, chain.UnknownMessage(Kind, msg)
	}
}

func (Registry) Query(q *chain.QueryContext, msg any) (any, error) {
	if res, handled, err := group.Query(q, msg); handled {
		return res, err
	}
	if res, handled, err := group.QuerySlashing(q, msg); handled {
		return res, err
	}
	switch msg.(type) {
	case HalflifeQuery:
		return loadHalflife(q.Store, q.Contract)
	default:
		return nil, chain.UnknownMessage(Kind, msg)
	}
}

func (r Registry) setPoints(ctx *chain.Context, m SetPoints) (*chain.Response, error) {
	if err := group.NewAdmin(ctx.Contract).Assert(ctx.Store, ctx.Sender); err != nil {
		return nil, err
	}
	diff, err := group.NewMembers(ctx.Contract).Set(ctx.Store, ctx.Env.Height, m.Addr, m.Points)
	if err != nil {
		return nil, err
	}
	if err := r.publish(ctx, []group.MemberDiff{diff}); err != nil {
		return nil, err
	}
	return chain.NewResponse("set_points").
		Add("sender", ctx.Sender).
		Add("member", m.Addr).
		Add("points", m.Points), nil
}

func (r Registry) addPoints(ctx *chain.Context, m AddPoints) (*chain.Response, error) {
	if err := group.NewAdmin(ctx.Contract).Assert(ctx.Store, ctx.Sender); err != nil {
		return nil, err
	}
	members := group.NewMembers(ctx.Contract)
	current, err := members.Points(ctx.Store, m.Addr)
	if err != nil {
		return nil, err
	}
	points, ok := safemath.Add64(current, m.Points)
	if !ok {
		return nil, fmt.Errorf("add points to %s: %w", m.Addr, safemath.ErrOverflow)
	}
	diff, err := members.Set(ctx.Store, ctx.Env.Height, m.Addr, points)
	if err != nil {
		return nil, err
	}
	if err := r.publish(ctx, []group.MemberDiff{diff}); err != nil {
		return nil, err
	}
	return chain.NewResponse("add_points").
		Add("sender", ctx.Sender).
		Add("member", m.Addr).
		Add("amount", m.Points), nil
}

func (r Registry) updateMembers(ctx *chain.Context, m UpdateMembers) (*chain.Response, error) {
	if err := group.NewAdmin(ctx.Contract).Assert(ctx.Store, ctx.Sender); err != nil {
		return nil, err
	}
	members := group.NewMembers(ctx.Contract)
	diffs := make([]group.MemberDiff, 0, len(m.Add)+len(m.Remove))
	for _, add := range m.Add {
		diff, err := members.Set(ctx.Store, ctx.Env.Height, add.Addr, add.Points)
		if err != nil {
			return nil, err
		}
		diffs = append(diffs, diff)
	}
	for _, addr := range m.Remove {
		diff, err := members.Set(ctx.Store, ctx.Env.Height, addr, 0)
		if err != nil {
			return nil, err
		}
		diffs = append(diffs, diff)
	}
	if err := r.publish(ctx, diffs); err != nil {
		return nil, err
	}
	return chain.NewResponse("update_members").
		Add("sender", ctx.Sender).
		Add("added", len(m.Add)).
		Add("removed", len(m.Remove)), nil
}

// publish drops no-op diffs, logs the change and notifies hooks.
func (Registry) publish(ctx *chain.Context, diffs []group.MemberDiff) error {
	for _, d := range diffs {
		if d.Old == d.New {
			continue
		}
		log.Group.Debug().
			Str("registry", ctx.Contract.String()).
			Str("member", d.Addr.String()).
			Uint64("old", d.Old).
			Uint64("new", d.New).
			Msg("points changed")
	}
	return group.Notify(ctx, diffs)
}
