package group

import (
	"fmt"

	"github.com/eigerco/poe/internal/address"
	"github.com/eigerco/poe/internal/chain"
	"github.com/eigerco/poe/internal/store"
	"github.com/eigerco/poe/pkg/db"
)

const subPreauth byte = 'q'

// Names of preauthorization counters.
const (
	PreauthHooks    = "hooks"
	PreauthSlashing = "slashing"
)

// Preauth counts how many times someone other than the admin may perform
// a privileged action.
type Preauth struct {
	key  []byte
	name string
}

func NewPreauth(contract address.Address, name string) Preauth {
	return Preauth{
		key:  store.ContractNamespace(contract).Key(subPreauth, []byte(name)),
		name: name,
	}
}

func (p Preauth) Get(r db.Reader) (uint64, error) {
	return store.GetUint64(r, p.key)
}

func (p Preauth) Set(w db.Writer, n uint64) error {
	return store.PutUint64(w, p.key, n)
}

// Use consumes one allowance.
func (p Preauth) Use(rw db.ReadWriter) error {
	left, err := p.Get(rw)
	if err != nil {
		return err
	}
	if left == 0 {
		return fmt.Errorf("%w: %w for %s", ErrUnauthorized, ErrNoPreauth, p.name)
	}
	return p.Set(rw, left-1)
}

// AdminOrPreauth lets the admin through and makes anyone else spend one
// allowance of p.
func AdminOrPreauth(ctx *chain.Context, p Preauth) error {
	isAdmin, err := NewAdmin(ctx.Contract).IsAdmin(ctx.Store, ctx.Sender)
	if err != nil {
		return err
	}
	if isAdmin {
		return nil
	}
	return p.Use(ctx.Store)
}

// ExecuteAddHook subscribes msg.Addr. The admin or the hook itself may
// re-add an existing hook without spending a preauth.
func ExecuteAddHook(ctx *chain.Context, msg AddHook) (*chain.Response, error) {
	if err := msg.Addr.Validate(); err != nil {
		return nil, err
	}
	hooks := NewHooks(ctx.Contract)
	exists, err := hooks.Has(ctx.Store, msg.Addr)
	if err != nil {
		return nil, err
	}
	if exists {
		isAdmin, err := NewAdmin(ctx.Contract).IsAdmin(ctx.Store, ctx.Sender)
		if err != nil {
			return nil, err
		}
		if !isAdmin && ctx.Sender != msg.Addr {
			return nil, fmt.Errorf("%w: %s may not re-add hook %s", ErrUnauthorized, ctx.Sender, msg.Addr)
		}
		return AddHookResponse(ctx, msg, false), nil
	}
	if err := AdminOrPreauth(ctx, NewPreauth(ctx.Contract, PreauthHooks)); err != nil {
		return nil, err
	}
	added, err := hooks.Add(ctx.Store, msg.Addr)
	if err != nil {
		return nil, err
	}
	return AddHookResponse(ctx, msg, added), nil
}
