package registry

import (
	"time"

	"github.com/eigerco/poe/internal/address"
	"github.com/eigerco/poe/internal/chain"
	"github.com/eigerco/poe/internal/group"
	"github.com/eigerco/poe/internal/store"
	"github.com/eigerco/poe/pkg/db"
	"github.com/eigerco/poe/pkg/log"
)

const subHalflife byte = 'l'

func saveHalflife(w db.Writer, contract address.Address, h HalflifeResponse) error {
	enc := (&store.Encoder{}).Uint64(uint64(h.Halflife)).Uint64(uint64(h.LastApplied.UnixNano()))
	return w.Put(store.ContractNamespace(contract).Key(subHalflife), enc.Bytes())
}

func loadHalflife(r db.Reader, contract address.Address) (HalflifeResponse, error) {
	v, ok, err := store.Get(r, store.ContractNamespace(contract).Key(subHalflife))
	if err != nil || !ok {
		return HalflifeResponse{}, err
	}
	d := store.NewDecoder(v)
	h := HalflifeResponse{
		Halflife:    time.Duration(d.Uint64()),
		LastApplied: time.Unix(0, int64(d.Uint64())).UTC(),
	}
	return h, d.Err()
}

// EndBlock halves every member holding more than one point once a full
// half-life has passed since the last reduction.
func (r Registry) EndBlock(ctx *chain.Context) (*chain.Response, error) {
	h, err := loadHalflife(ctx.Store, ctx.Contract)
	if err != nil {
		return nil, err
	}
	if h.Halflife == 0 || ctx.Env.Time.Before(h.LastApplied.Add(h.Halflife)) {
		return nil, nil
	}

	members := group.NewMembers(ctx.Contract)
	all, err := members.All(ctx.Store)
	if err != nil {
		return nil, err
	}
	var (
		diffs     []group.MemberDiff
		reduction uint64
	)
	for _, m := range all {
		if m.Points <= 1 {
			continue
		}
		diff, err := members.Set(ctx.Store, ctx.Env.Height, m.Addr, m.Points/2)
		if err != nil {
			return nil, err
		}
		reduction += diff.Old - diff.New
		diffs = append(diffs, diff)
	}

	h.LastApplied = ctx.Env.Time
	if err := saveHalflife(ctx.Store, ctx.Contract, h); err != nil {
		return nil, err
	}
	log.Group.Debug().
		Str("registry", ctx.Contract.String()).
		Uint64("height", ctx.Env.Height).
		Uint64("reduction", reduction).
		Msg("halflife applied")
	if err := group.Notify(ctx, diffs); err != nil {
		return nil, err
	}
	return chain.NewResponse("halflife").
		Add("height", ctx.Env.Height).
		Add("reduction", reduction), nil
}
