package registry

import (
	"github.com/eigerco/poe/internal/chain"
	"github.com/eigerco/poe/internal/group"
)

// slash removes floor(points * portion) from a member. Slashing someone
// who is not a member does nothing.
func (r Registry) slash(ctx *chain.Context, m Slash) (*chain.Response, error) {
	if err := group.AuthorizeSlash(ctx, m); err != nil {
		return nil, err
	}
	members := group.NewMembers(ctx.Contract)
	member, found, err := members.Get(ctx.Store, m.Addr)
	if err != nil {
		return nil, err
	}
	resp := chain.NewResponse("slash").
		Add("sender", ctx.Sender).
		Add("addr", m.Addr).
		Add("portion", m.Portion)
	if !found {
		return resp.Add("slashed", 0), nil
	}
	cut, err := m.Portion.MulFloor(member.Points)
	if err != nil {
		return nil, err
	}
	diff, err := members.Set(ctx.Store, ctx.Env.Height, m.Addr, member.Points-cut)
	if err != nil {
		return nil, err
	}
	if err := r.publish(ctx, []group.MemberDiff{diff}); err != nil {
		return nil, err
	}
	return resp.Add("slashed", cut), nil
}
