package chain

import (
	"fmt"
	"slices"

	"github.com/eigerco/poe/internal/address"
	"github.com/eigerco/poe/internal/bank"
	"github.com/eigerco/poe/internal/store"
	"github.com/eigerco/poe/pkg/db"
)

// MaxCallDepth bounds how deep contract to contract calls may nest.
const MaxCallDepth = 10

// Context is handed to a contract for one message. Store is the pending
// batch of the whole transaction: every write made through it, including
// the ones made by nested calls, commits or rolls back together.
type Context struct {
	Env      Env
	Contract address.Address
	Sender   address.Address
	Store    db.ReadWriter

	chain *Chain
	// stack holds the contracts currently executing, outermost first.
	stack []address.Address
}

// Namespace is the key range owned by the executing contract.
func (c *Context) Namespace() store.Namespace {
	return store.ContractNamespace(c.Contract)
}

func (c *Context) Bank() bank.Keeper {
	return bank.NewKeeper(c.Store)
}

// Lookup resolves the kind and implementation of the contract at addr.
func (c *Context) Lookup(addr address.Address) (Kind, Contract, error) {
	return c.chain.lookup(c.Store, addr)
}

// Call synchronously executes msg on target with the current contract as
// sender. Re-entering a contract that is already on the call stack fails
// with ErrHookCycle.
func (c *Context) Call(target address.Address, msg any) (*Response, error) {
	if slices.Contains(c.stack, target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrHookCycle, c.Contract, target)
	}
	if len(c.stack) >= MaxCallDepth {
		return nil, fmt.Errorf("%w: %d", ErrCallDepth, MaxCallDepth)
	}
	_, impl, err := c.Lookup(target)
	if err != nil {
		return nil, err
	}
	sub := &Context{
		Env:      c.Env,
		Contract: target,
		Sender:   c.Contract,
		Store:    c.Store,
		chain:    c.chain,
		stack:    append(slices.Clone(c.stack), target),
	}
	return impl.Execute(sub, msg)
}

// QueryContext is the read-only counterpart of Context.
type QueryContext struct {
	Env      Env
	Contract address.Address
	Store    db.Reader

	chain *Chain
}

func (q *QueryContext) Namespace() store.Namespace {
	return store.ContractNamespace(q.Contract)
}

func (q *QueryContext) Lookup(addr address.Address) (Kind, Contract, error) {
	return q.chain.lookup(q.Store, addr)
}
