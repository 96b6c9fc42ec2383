package group

import (
	"fmt"

	"github.com/eigerco/poe/internal/address"
	"github.com/eigerco/poe/internal/chain"
	"github.com/eigerco/poe/internal/decimal"
	"github.com/eigerco/poe/internal/store"
	"github.com/eigerco/poe/pkg/db"
)

const subSlashers byte = 's'

// Slashers is the set of addresses allowed to slash members of a source.
type Slashers struct {
	ns store.Namespace
}

func NewSlashers(contract address.Address) Slashers {
	return Slashers{ns: store.ContractNamespace(contract)}
}

func (s Slashers) key(addr address.Address) []byte {
	return s.ns.Key(subSlashers, addr.Bytes())
}

func (s Slashers) Has(r db.Reader, addr address.Address) (bool, error) {
	return store.Has(r, s.key(addr))
}

// List returns the slashers in address order.
func (s Slashers) List(r db.Reader) ([]address.Address, error) {
	start, end := s.ns.Range(subSlashers)
	slashers := []address.Address{}
	err := store.Collect(r, start, end, 0, func(key, _ []byte) error {
		slashers = append(slashers, address.Address(s.ns.Suffix(subSlashers, key)))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list slashers: %w", err)
	}
	return slashers, nil
}

// ExecuteAddSlasher is open to the admin and to holders of a slashing
// preauth. An existing slasher is reported without spending one.
func ExecuteAddSlasher(ctx *chain.Context, msg AddSlasher) (*chain.Response, error) {
	if err := msg.Addr.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMember, err)
	}
	slashers := NewSlashers(ctx.Contract)
	exists, err := slashers.Has(ctx.Store, msg.Addr)
	if err != nil {
		return nil, err
	}
	resp := chain.NewResponse("add_slasher").
		Add("sender", ctx.Sender).
		Add("slasher", msg.Addr).
		Add("added", !exists)
	if exists {
		return resp, nil
	}
	if err := AdminOrPreauth(ctx, NewPreauth(ctx.Contract, PreauthSlashing)); err != nil {
		return nil, err
	}
	if err := ctx.Store.Put(slashers.key(msg.Addr), nil); err != nil {
		return nil, err
	}
	return resp, nil
}

// ExecuteRemoveSlasher is allowed for the admin and for the slasher itself.
func ExecuteRemoveSlasher(ctx *chain.Context, msg RemoveSlasher) (*chain.Response, error) {
	if ctx.Sender != msg.Addr {
		if err := NewAdmin(ctx.Contract).Assert(ctx.Store, ctx.Sender); err != nil {
			return nil, err
		}
	}
	if err := ctx.Store.Delete(NewSlashers(ctx.Contract).key(msg.Addr)); err != nil {
		return nil, err
	}
	return chain.NewResponse("remove_slasher").
		Add("sender", ctx.Sender).
		Add("slasher", msg.Addr), nil
}

// AuthorizeSlash checks that the sender may slash and that msg.Portion is
// within (0, 1].
func AuthorizeSlash(ctx *chain.Context, msg Slash) error {
	ok, err := NewSlashers(ctx.Contract).Has(ctx.Store, ctx.Sender)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s is not a slasher", ErrUnauthorized, ctx.Sender)
	}
	if msg.Portion.IsZero() || msg.Portion.Cmp(decimal.FromUint64(1)) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidPortion, msg.Portion)
	}
	return nil
}

// QuerySlashing answers the queries of slashable sources. handled is false
// for any other message.
func QuerySlashing(q *chain.QueryContext, msg any) (result any, handled bool, err error) {
	switch m := msg.(type) {
	case IsSlasherQuery:
		ok, err := NewSlashers(q.Contract).Has(q.Store, m.Addr)
		return ok, true, err
	case ListSlashersQuery:
		list, err := NewSlashers(q.Contract).List(q.Store)
		return list, true, err
	case PreauthsQuery:
		hooks, err := NewPreauth(q.Contract, PreauthHooks).Get(q.Store)
		if err != nil {
			return nil, true, err
		}
		slashing, err := NewPreauth(q.Contract, PreauthSlashing).Get(q.Store)
		if err != nil {
			return nil, true, err
		}
		return PreauthsResponse{Hooks: hooks, Slashing: slashing}, true, nil
	default:
		return nil, false, nil
	}
}
