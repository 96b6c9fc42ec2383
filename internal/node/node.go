// Package node assembles a chain with every contract kind registered and
// seeds it from a genesis file.
package node

import (
	"errors"
	"fmt"

	"github.com/eigerco/poe/internal/address"
	"github.com/eigerco/poe/internal/bank"
	"github.com/eigerco/poe/internal/chain"
	"github.com/eigerco/poe/internal/config"
	"github.com/eigerco/poe/internal/group"
	"github.com/eigerco/poe/internal/ledger"
	"github.com/eigerco/poe/internal/mixer"
	"github.com/eigerco/poe/internal/registry"
	"github.com/eigerco/poe/internal/stake"
	"github.com/eigerco/poe/pkg/db"
	"github.com/eigerco/poe/pkg/log"
)

var ErrNotInitialized = errors.New("node: chain not initialized, run init first")

type Node struct {
	*chain.Chain
}

// New wraps kv in a chain that knows the registry, stake, mixer and ledger
// kinds.
func New(kv db.KVStore) (*Node, error) {
	c, err := chain.New(kv)
	if err != nil {
		return nil, err
	}
	c.Register(registry.Kind, registry.New())
	c.Register(stake.Kind, stake.New())
	c.Register(mixer.Kind, mixer.New())
	c.Register(ledger.Kind, ledger.New())
	return &Node{Chain: c}, nil
}

// Open opens the store configured in cfg.
func Open(cfg config.Config) (*Node, error) {
	kv, err := cfg.OpenStore()
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	n, err := New(kv)
	if err != nil {
		_ = kv.Close()
		return nil, err
	}
	return n, nil
}

// Started reports ErrNotInitialized until genesis has been applied.
func (n *Node) Started() error {
	if n.Env().Height == 0 {
		return ErrNotInitialized
	}
	return nil
}

// Resolve turns a contract label or a plain address into an address.
// Labels win when a contract with that label exists.
func (n *Node) Resolve(ref string) (address.Address, error) {
	contract := address.Contract(ref)
	_, err := n.KindOf(contract)
	switch {
	case err == nil:
		return contract, nil
	case errors.Is(err, chain.ErrUnknownContract):
		return address.Parse(ref)
	default:
		return "", err
	}
}

// ApplyGenesis starts the chain and creates everything g describes:
// balances, registries, stakes, mixers, then ledgers.
func (n *Node) ApplyGenesis(g config.Genesis) error {
	if err := g.Validate(); err != nil {
		return err
	}
	if err := n.Start(g.StartTime); err != nil {
		return err
	}
	if err := n.Update(func(rw db.ReadWriter) error {
		keeper := bank.NewKeeper(rw)
		for _, b := range g.Balances {
			coin, err := b.Coin()
			if err != nil {
				return err
			}
			if err := keeper.Mint(b.Address, coin); err != nil {
				return fmt.Errorf("mint %s to %s: %w", coin, b.Address, err)
			}
		}
		return nil
	}); err != nil {
		return err
	}

	for _, r := range g.Registries {
		if err := n.genesisRegistry(g, r); err != nil {
			return fmt.Errorf("registry %q: %w", r.Label, err)
		}
	}
	for _, st := range g.Stakes {
		if err := n.genesisStake(g, st); err != nil {
			return fmt.Errorf("stake %q: %w", st.Label, err)
		}
	}
	for _, m := range g.Mixers {
		_, err := n.Instantiate(g.Admin, mixer.Kind, m.Label, mixer.Instantiate{
			Admin:        g.AdminOr(m.Admin),
			Left:         g.Resolve(m.Left),
			Right:        g.Resolve(m.Right),
			Function:     m.Function,
			PreauthHooks: m.PreauthHooks,
		})
		if err != nil {
			return fmt.Errorf("mixer %q: %w", m.Label, err)
		}
	}
	for _, l := range g.Ledgers {
		_, err := n.Instantiate(g.Admin, ledger.Kind, l.Label, ledger.Instantiate{
			Group: g.Resolve(l.Group),
			Denom: l.Denom,
		})
		if err != nil {
			return fmt.Errorf("ledger %q: %w", l.Label, err)
		}
	}

	env := n.Env()
	log.Root.Info().Uint64("height", env.Height).Time("time", env.Time).
		Int("registries", len(g.Registries)).Int("stakes", len(g.Stakes)).
		Int("mixers", len(g.Mixers)).Int("ledgers", len(g.Ledgers)).
		Msg("genesis applied")
	return nil
}

func (n *Node) genesisRegistry(g config.Genesis, r config.RegistryGenesis) error {
	admin := g.AdminOr(r.Admin)
	members := make([]group.Member, 0, len(r.Members))
	for _, m := range r.Members {
		members = append(members, group.Member{Addr: m.Address, Points: m.Points})
	}
	addr, err := n.Instantiate(g.Admin, registry.Kind, r.Label, registry.Instantiate{
		Admin:           admin,
		Members:         members,
		PreauthHooks:    r.PreauthHooks,
		PreauthSlashing: r.PreauthSlashing,
		Halflife:        r.Halflife,
	})
	if err != nil {
		return err
	}
	for _, s := range r.Slashers {
		if _, err := n.Execute(*admin, addr, registry.AddSlasher{Addr: g.Resolve(s)}); err != nil {
			return fmt.Errorf("slasher %s: %w", s, err)
		}
	}
	return nil
}

func (n *Node) genesisStake(g config.Genesis, st config.StakeGenesis) error {
	admin := g.AdminOr(st.Admin)
	minBond, err := st.MinBondAmount()
	if err != nil {
		return err
	}
	addr, err := n.Instantiate(g.Admin, stake.Kind, st.Label, stake.Instantiate{
		Admin:           admin,
		Denom:           st.Denom,
		TokensPerPoint:  st.TokensPerPoint,
		MinBond:         *minBond,
		UnbondingPeriod: st.UnbondingPeriod,
		AutoReturnLimit: st.AutoReturnLimit,
		PreauthHooks:    st.PreauthHooks,
		PreauthSlashing: st.PreauthSlashing,
	})
	if err != nil {
		return err
	}
	for _, s := range st.Slashers {
		if _, err := n.Execute(*admin, addr, stake.AddSlasher{Addr: g.Resolve(s)}); err != nil {
			return fmt.Errorf("slasher %s: %w", s, err)
		}
	}
	for _, b := range st.Bonds {
		coin, err := b.Coin(st.Denom)
		if err != nil {
			return err
		}
		if _, err := n.Execute(b.Address, addr, stake.Bond{Amount: coin}); err != nil {
			return fmt.Errorf("bond of %s: %w", b.Address, err)
		}
	}
	return nil
}
