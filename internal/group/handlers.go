package group

import (
	"fmt"

	"github.com/eigerco/poe/internal/chain"
)

// Source marks contract kinds whose state follows this package's layout,
// so that PointsOf and TotalOf can read them.
type Source interface {
	chain.Contract
	PointSource()
}

// HookListener is implemented by contracts that react to membership changes.
type HookListener interface {
	OnMemberChanged(ctx *chain.Context, msg MemberChangedHookMsg) (*chain.Response, error)
}

// IsSource reports whether impl keeps its members in this package's layout.
func IsSource(impl chain.Contract) bool {
	_, ok := impl.(Source)
	return ok
}

// ExecuteUpdateAdmin replaces the admin; only the current admin may do it.
func ExecuteUpdateAdmin(ctx *chain.Context, msg UpdateAdmin) (*chain.Response, error) {
	admin := NewAdmin(ctx.Contract)
	if err := admin.Assert(ctx.Store, ctx.Sender); err != nil {
		return nil, err
	}
	if err := admin.Set(ctx.Store, msg.Admin); err != nil {
		return nil, err
	}
	resp := chain.NewResponse("update_admin").Add("sender", ctx.Sender)
	if msg.Admin != nil {
		resp.Add("admin", *msg.Admin)
	}
	return resp, nil
}

// ExecuteRemoveHook lets the admin, or the hook itself, unsubscribe a hook.
func ExecuteRemoveHook(ctx *chain.Context, msg RemoveHook) (*chain.Response, error) {
	if ctx.Sender != msg.Addr {
		if err := NewAdmin(ctx.Contract).Assert(ctx.Store, ctx.Sender); err != nil {
			return nil, err
		}
	}
	removed, err := NewHooks(ctx.Contract).Remove(ctx.Store, msg.Addr)
	if err != nil {
		return nil, fmt.Errorf("remove hook: %w", err)
	}
	return chain.NewResponse("remove_hook").
		Add("sender", ctx.Sender).
		Add("hook", msg.Addr).
		Add("removed", removed), nil
}

// AddHookResponse is the response for a hook that was added or was
// already present.
func AddHookResponse(ctx *chain.Context, msg AddHook, added bool) *chain.Response {
	return chain.NewResponse("add_hook").
		Add("sender", ctx.Sender).
		Add("hook", msg.Addr).
		Add("added", added)
}

// Query answers the queries every source supports. handled is false for
// any other message.
func Query(q *chain.QueryContext, msg any) (result any, handled bool, err error) {
	members := NewMembers(q.Contract)
	switch m := msg.(type) {
	case MemberQuery:
		member, _, err := members.Get(q.Store, m.Addr)
		return member, true, err
	case TotalPointsQuery:
		total, err := members.Total(q.Store)
		return total, true, err
	case ListMembersQuery:
		list, err := members.List(q.Store, m.StartAfter, Limit(m.Limit))
		return list, true, err
	case ListMembersByPointsQuery:
		list, err := members.ListByPoints(q.Store, m.StartAfter, Limit(m.Limit))
		return list, true, err
	case HooksQuery:
		hooks, err := NewHooks(q.Contract).List(q.Store)
		return hooks, true, err
	case AdminQuery:
		admin, err := NewAdmin(q.Contract).Get(q.Store)
		return AdminResponse{Admin: admin}, true, err
	default:
		return nil, false, nil
	}
}
