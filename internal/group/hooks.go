package group

import (
	"fmt"

	"github.com/eigerco/poe/internal/address"
	"github.com/eigerco/poe/internal/chain"
	"github.com/eigerco/poe/internal/store"
	"github.com/eigerco/poe/pkg/db"
	"github.com/eigerco/poe/pkg/log"
)

// Hooks is the ordered subscriber list of one contract. Subscribers are
// delivered to in the order they were added.
type Hooks struct {
	ns store.Namespace
}

func NewHooks(contract address.Address) Hooks {
	return Hooks{ns: store.ContractNamespace(contract)}
}

func (h Hooks) Has(r db.Reader, addr address.Address) (bool, error) {
	return store.Has(r, h.ns.Key(subHooks, addr.Bytes()))
}

// Add subscribes addr. Adding an existing hook reports false and changes nothing.
func (h Hooks) Add(rw db.ReadWriter, addr address.Address) (bool, error) {
	exists, err := h.Has(rw, addr)
	if err != nil || exists {
		return false, err
	}
	seq, err := store.GetUint64(rw, h.ns.Key(subHookSeq))
	if err != nil {
		return false, err
	}
	if err := store.PutUint64(rw, h.ns.Key(subHooks, addr.Bytes()), seq); err != nil {
		return false, err
	}
	if err := rw.Put(h.ns.Key(subHookOrder, store.EncodeUint64(seq), addr.Bytes()), nil); err != nil {
		return false, err
	}
	if err := store.PutUint64(rw, h.ns.Key(subHookSeq), seq+1); err != nil {
		return false, err
	}
	return true, nil
}

// Remove unsubscribes addr. Removing an unknown hook reports false.
func (h Hooks) Remove(rw db.ReadWriter, addr address.Address) (bool, error) {
	v, ok, err := store.Get(rw, h.ns.Key(subHooks, addr.Bytes()))
	if err != nil || !ok {
		return false, err
	}
	seq, err := store.DecodeUint64(v)
	if err != nil {
		return false, err
	}
	if err := rw.Delete(h.ns.Key(subHooks, addr.Bytes())); err != nil {
		return false, err
	}
	if err := rw.Delete(h.ns.Key(subHookOrder, store.EncodeUint64(seq), addr.Bytes())); err != nil {
		return false, err
	}
	return true, nil
}

// List returns the hooks in delivery order.
func (h Hooks) List(r db.Reader) ([]address.Address, error) {
	start, end := h.ns.Range(subHookOrder)
	hooks := []address.Address{}
	err := store.Collect(r, start, end, 0, func(key, _ []byte) error {
		suffix := h.ns.Suffix(subHookOrder, key)
		if len(suffix) < 8 {
			return fmt.Errorf("malformed hook key %x", key)
		}
		hooks = append(hooks, address.Address(suffix[8:]))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list hooks: %w", err)
	}
	return hooks, nil
}

// Notify delivers diffs to every hook of the executing contract, stopping
// at the first failure. Unchanged entries are dropped and nothing is sent
// when no entry is left.
func Notify(ctx *chain.Context, diffs []MemberDiff) error {
	changed := make([]MemberDiff, 0, len(diffs))
	for _, d := range diffs {
		if d.Old != d.New {
			changed = append(changed, d)
		}
	}
	if len(changed) == 0 {
		return nil
	}
	hooks, err := NewHooks(ctx.Contract).List(ctx.Store)
	if err != nil {
		return err
	}
	msg := MemberChangedHookMsg{Diffs: changed}
	for _, hook := range hooks {
		log.Group.Debug().
			Str("source", ctx.Contract.String()).
			Str("hook", hook.String()).
			Int("diffs", len(changed)).
			Msg("notify hook")
		if _, err := ctx.Call(hook, msg); err != nil {
			return fmt.Errorf("hook %s: %w", hook, err)
		}
	}
	return nil
}
