// Package chain is a minimal in-process host for the point and reward
// contracts. It executes one message at a time against a transactional
// batch and commits it only when the message, and every hook it triggered,
// succeeded.
package chain

import (
	"fmt"
	"sync"
	"time"

	"github.com/eigerco/poe/internal/address"
	"github.com/eigerco/poe/internal/store"
	"github.com/eigerco/poe/pkg/db"
	"github.com/eigerco/poe/pkg/log"
)

// Chain owns the store and the set of known contract kinds.
type Chain struct {
	mu    sync.Mutex
	db    db.KVStore
	kinds map[Kind]Contract
	env   Env
}

// ContractInfo describes an instantiated contract.
type ContractInfo struct {
	Address address.Address
	Kind    Kind
}

// New opens a chain on kv, restoring height and time if they were persisted.
func New(kv db.KVStore) (*Chain, error) {
	c := &Chain{
		db:    kv,
		kinds: make(map[Kind]Contract),
	}
	height, err := store.GetUint64(kv, store.ChainKey("height"))
	if err != nil {
		return nil, fmt.Errorf("load height: %w", err)
	}
	nanos, err := store.GetUint64(kv, store.ChainKey("time"))
	if err != nil {
		return nil, fmt.Errorf("load time: %w", err)
	}
	c.env = Env{Height: height, Time: time.Unix(0, int64(nanos)).UTC()}
	return c, nil
}

// Register makes a contract kind available for instantiation.
func (c *Chain) Register(kind Kind, impl Contract) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.kinds[kind] = impl
}

func (c *Chain) Env() Env {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.env
}

// Start sets the genesis block. It only succeeds on an empty chain.
func (c *Chain) Start(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.env.Height != 0 {
		return fmt.Errorf("chain: already started at height %d", c.env.Height)
	}
	env := Env{Height: 1, Time: t.UTC()}
	if err := c.update(func(rw db.ReadWriter) error {
		return putEnv(rw, env)
	}); err != nil {
		return err
	}
	c.env = env
	return nil
}

// Update runs fn in its own batch. Genesis uses it to seed balances.
func (c *Chain) Update(fn func(rw db.ReadWriter) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.update(fn)
}

func (c *Chain) update(fn func(rw db.ReadWriter) error) error {
	batch := c.db.NewBatch()
	defer batch.Close() //nolint:errcheck
	if err := fn(batch); err != nil {
		return err
	}
	if err := batch.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// Instantiate creates a contract of kind at the address derived from label.
func (c *Chain) Instantiate(sender address.Address, kind Kind, label string, msg any) (address.Address, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	impl, ok := c.kinds[kind]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	addr := address.Contract(label)
	err := c.update(func(rw db.ReadWriter) error {
		exists, err := store.Has(rw, store.ContractKey(addr))
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: %s (%s)", ErrContractExists, label, addr)
		}
		if err := rw.Put(store.ContractKey(addr), []byte(kind)); err != nil {
			return err
		}
		return impl.Instantiate(c.newContext(rw, sender, addr), msg)
	})
	if err != nil {
		log.Chain.Warn().Err(err).Str("kind", string(kind)).Str("label", label).Msg("instantiate rejected")
		return "", err
	}
	log.Chain.Debug().Str("kind", string(kind)).Str("label", label).Str("contract", addr.String()).Msg("instantiated")
	return addr, nil
}

// Execute delivers msg from sender to contract atomically.
func (c *Chain) Execute(sender, contract address.Address, msg any) (*Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var resp *Response
	err := c.update(func(rw db.ReadWriter) error {
		_, impl, err := c.lookup(rw, contract)
		if err != nil {
			return err
		}
		resp, err = impl.Execute(c.newContext(rw, sender, contract), msg)
		return err
	})
	if err != nil {
		log.Chain.Warn().Err(err).
			Str("sender", sender.String()).
			Str("contract", contract.String()).
			Str("msg", fmt.Sprintf("%T", msg)).
			Msg("transaction rejected")
		return nil, err
	}
	log.Chain.Debug().
		Str("sender", sender.String()).
		Str("contract", contract.String()).
		Str("msg", fmt.Sprintf("%T", msg)).
		Msg("executed")
	return resp, nil
}

// Query runs a read-only query against committed state.
func (c *Chain) Query(contract address.Address, msg any) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, impl, err := c.lookup(c.db, contract)
	if err != nil {
		return nil, err
	}
	return impl.Query(&QueryContext{Env: c.env, Contract: contract, Store: c.db, chain: c}, msg)
}

// Reader exposes committed state for queries that are not bound to a
// single contract, such as bank balances.
func (c *Chain) Reader() db.Reader {
	return c.db
}

// AdvanceBlock moves to the next block, d later, and runs every end
// blocker in address order. All of them commit together or not at all.
func (c *Chain) AdvanceBlock(d time.Duration) (Env, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	env := Env{Height: c.env.Height + 1, Time: c.env.Time.Add(d)}
	err := c.update(func(rw db.ReadWriter) error {
		if err := putEnv(rw, env); err != nil {
			return err
		}
		infos, err := c.contracts(rw)
		if err != nil {
			return err
		}
		for _, info := range infos {
			blocker, ok := c.kinds[info.Kind].(EndBlocker)
			if !ok {
				continue
			}
			ctx := &Context{Env: env, Contract: info.Address, Store: rw, chain: c, stack: []address.Address{info.Address}}
			if _, err := blocker.EndBlock(ctx); err != nil {
				return fmt.Errorf("end block %s: %w", info.Address, err)
			}
		}
		return nil
	})
	if err != nil {
		log.Chain.Warn().Err(err).Uint64("height", env.Height).Msg("end block failed")
		return c.env, err
	}
	c.env = env
	log.Chain.Debug().Uint64("height", env.Height).Time("time", env.Time).Msg("block advanced")
	return env, nil
}

// Contracts lists every instantiated contract in address order.
func (c *Chain) Contracts() ([]ContractInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.contracts(c.db)
}

// KindOf returns the kind of the contract at addr, or ErrUnknownContract.
func (c *Chain) KindOf(addr address.Address) (Kind, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kind, _, err := c.lookup(c.db, addr)
	return kind, err
}

func (c *Chain) Close() error {
	return c.db.Close()
}

func (c *Chain) contracts(r db.Reader) ([]ContractInfo, error) {
	var infos []ContractInfo
	start, end := store.ContractRange()
	err := store.Collect(r, start, end, 0, func(key, value []byte) error {
		addr, err := store.ContractFromKey(key)
		if err != nil {
			return err
		}
		infos = append(infos, ContractInfo{Address: addr, Kind: Kind(value)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	return infos, nil
}

func (c *Chain) lookup(r db.Reader, addr address.Address) (Kind, Contract, error) {
	v, ok, err := store.Get(r, store.ContractKey(addr))
	if err != nil {
		return "", nil, fmt.Errorf("load contract %s: %w", addr, err)
	}
	if !ok {
		return "", nil, fmt.Errorf("%w: %s", ErrUnknownContract, addr)
	}
	kind := Kind(v)
	impl, ok := c.kinds[kind]
	if !ok {
		return "", nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return kind, impl, nil
}

func (c *Chain) newContext(rw db.ReadWriter, sender, contract address.Address) *Context {
	return &Context{
		Env:      c.env,
		Contract: contract,
		Sender:   sender,
		Store:    rw,
		chain:    c,
		stack:    []address.Address{contract},
	}
}

func putEnv(w db.Writer, env Env) error {
	if err := store.PutUint64(w, store.ChainKey("height"), env.Height); err != nil {
		return err
	}
	return store.PutUint64(w, store.ChainKey("time"), uint64(env.Time.UnixNano()))
}
