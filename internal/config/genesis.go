package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/holiman/uint256"
	"gopkg.in/yaml.v3"

	"github.com/eigerco/poe/internal/address"
	"github.com/eigerco/poe/internal/bank"
	"github.com/eigerco/poe/internal/mixer"
)

// Genesis is the initial state of a chain: balances and the contracts to
// create, in order. Contracts refer to each other by label. Mixers and
// ledgers subscribe themselves to their sources, so a source feeding them
// needs enough preauth_hooks.
type Genesis struct {
	// StartTime is the time of the first block.
	StartTime time.Time `yaml:"start_time"`
	// Admin instantiates every contract and administers those that do
	// not name their own admin.
	Admin      address.Address   `yaml:"admin"`
	Balances   []Balance         `yaml:"balances,omitempty"`
	Registries []RegistryGenesis `yaml:"registries,omitempty"`
	Stakes     []StakeGenesis    `yaml:"stakes,omitempty"`
	Mixers     []MixerGenesis    `yaml:"mixers,omitempty"`
	Ledgers    []LedgerGenesis   `yaml:"ledgers,omitempty"`
}

type Balance struct {
	Address address.Address `yaml:"address"`
	Denom   string          `yaml:"denom"`
	// Amount is a decimal integer; it may exceed 64 bits.
	Amount string `yaml:"amount"`
}

// Coin parses the balance.
func (b Balance) Coin() (bank.Coin, error) {
	amount, err := uint256.FromDecimal(b.Amount)
	if err != nil {
		return bank.Coin{}, fmt.Errorf("amount %q: %w", b.Amount, err)
	}
	return bank.Coin{Denom: b.Denom, Amount: *amount}, nil
}

type MemberGenesis struct {
	Address address.Address `yaml:"address"`
	Points  uint64          `yaml:"points"`
}

type RegistryGenesis struct {
	Label           string           `yaml:"label"`
	Admin           *address.Address `yaml:"admin,omitempty"`
	Members         []MemberGenesis  `yaml:"members,omitempty"`
	PreauthHooks    uint64           `yaml:"preauth_hooks,omitempty"`
	PreauthSlashing uint64           `yaml:"preauth_slashing,omitempty"`
	Halflife        time.Duration    `yaml:"halflife,omitempty"`
	Slashers        []string         `yaml:"slashers,omitempty"`
}

// StakeGenesis creates a bonded stake source. Bonds are executed by their
// owners after the contract exists, so they need a balance in Denom.
type StakeGenesis struct {
	Label           string           `yaml:"label"`
	Admin           *address.Address `yaml:"admin,omitempty"`
	Denom           string           `yaml:"denom"`
	TokensPerPoint  uint64           `yaml:"tokens_per_point"`
	MinBond         string           `yaml:"min_bond,omitempty"`
	UnbondingPeriod time.Duration    `yaml:"unbonding_period"`
	AutoReturnLimit uint64           `yaml:"auto_return_limit,omitempty"`
	PreauthHooks    uint64           `yaml:"preauth_hooks,omitempty"`
	PreauthSlashing uint64           `yaml:"preauth_slashing,omitempty"`
	Slashers        []string         `yaml:"slashers,omitempty"`
	Bonds           []Bond           `yaml:"bonds,omitempty"`
}

// MinBondAmount parses MinBond; empty means zero.
func (s StakeGenesis) MinBondAmount() (*uint256.Int, error) {
	if s.MinBond == "" {
		return new(uint256.Int), nil
	}
	v, err := uint256.FromDecimal(s.MinBond)
	if err != nil {
		return nil, fmt.Errorf("min_bond %q: %w", s.MinBond, err)
	}
	return v, nil
}

type Bond struct {
	Address address.Address `yaml:"address"`
	Amount  string          `yaml:"amount"`
}

// Coin parses the bond in denom.
func (b Bond) Coin(denom string) (bank.Coin, error) {
	return Balance{Address: b.Address, Denom: denom, Amount: b.Amount}.Coin()
}

type MixerGenesis struct {
	Label        string           `yaml:"label"`
	Admin        *address.Address `yaml:"admin,omitempty"`
	Left         string           `yaml:"left"`
	Right        string           `yaml:"right"`
	Function     mixer.Function   `yaml:"function"`
	PreauthHooks uint64           `yaml:"preauth_hooks,omitempty"`
}

type LedgerGenesis struct {
	Label string `yaml:"label"`
	Group string `yaml:"group"`
	Denom string `yaml:"denom"`
}

// LoadGenesis reads and validates a genesis file.
func LoadGenesis(path string) (Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, fmt.Errorf("read genesis: %w", err)
	}
	return ParseGenesis(data)
}

// ParseGenesis decodes YAML, rejecting unknown fields.
func ParseGenesis(data []byte) (Genesis, error) {
	var g Genesis
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&g); err != nil {
		return Genesis{}, fmt.Errorf("decode genesis: %w", err)
	}
	if err := g.Validate(); err != nil {
		return Genesis{}, err
	}
	return g, nil
}

// Validate checks what can be checked without executing anything.
func (g Genesis) Validate() error {
	if g.StartTime.IsZero() {
		return fmt.Errorf("%w: genesis start_time is required", ErrInvalidConfig)
	}
	if err := g.Admin.Validate(); err != nil {
		return fmt.Errorf("%w: genesis admin: %w", ErrInvalidConfig, err)
	}
	for _, b := range g.Balances {
		if err := b.Address.Validate(); err != nil {
			return fmt.Errorf("%w: balance: %w", ErrInvalidConfig, err)
		}
		if _, err := b.Coin(); err != nil {
			return fmt.Errorf("%w: balance of %s: %w", ErrInvalidConfig, b.Address, err)
		}
	}
	labels := make(map[string]bool)
	addLabel := func(label string) error {
		if label == "" {
			return fmt.Errorf("%w: contract without label", ErrInvalidConfig)
		}
		if labels[label] {
			return fmt.Errorf("%w: duplicate label %q", ErrInvalidConfig, label)
		}
		labels[label] = true
		return nil
	}
	for _, r := range g.Registries {
		if err := addLabel(r.Label); err != nil {
			return err
		}
	}
	for _, st := range g.Stakes {
		if err := addLabel(st.Label); err != nil {
			return err
		}
		if _, err := st.MinBondAmount(); err != nil {
			return fmt.Errorf("%w: stake %q: %w", ErrInvalidConfig, st.Label, err)
		}
		for _, b := range st.Bonds {
			if err := b.Address.Validate(); err != nil {
				return fmt.Errorf("%w: stake %q bond: %w", ErrInvalidConfig, st.Label, err)
			}
			if _, err := b.Coin(st.Denom); err != nil {
				return fmt.Errorf("%w: stake %q bond of %s: %w", ErrInvalidConfig, st.Label, b.Address, err)
			}
		}
	}
	for _, m := range g.Mixers {
		if err := addLabel(m.Label); err != nil {
			return err
		}
	}
	for _, l := range g.Ledgers {
		if err := addLabel(l.Label); err != nil {
			return err
		}
	}
	return nil
}

// Resolve maps a contract label from this genesis to its address and
// passes anything else through as an address.
func (g Genesis) Resolve(ref string) address.Address {
	for _, r := range g.Registries {
		if r.Label == ref {
			return address.Contract(ref)
		}
	}
	for _, st := range g.Stakes {
		if st.Label == ref {
			return address.Contract(ref)
		}
	}
	for _, m := range g.Mixers {
		if m.Label == ref {
			return address.Contract(ref)
		}
	}
	for _, l := range g.Ledgers {
		if l.Label == ref {
			return address.Contract(ref)
		}
	}
	return address.Address(ref)
}

// AdminOr returns admin, or the genesis admin when admin is nil.
func (g Genesis) AdminOr(admin *address.Address) *address.Address {
	if admin != nil {
		return admin
	}
	a := g.Admin
	return &a
}
