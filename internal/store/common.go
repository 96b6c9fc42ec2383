package store

import (
	"errors"
	"fmt"

	"github.com/eigerco/poe/internal/address"
	"github.com/eigerco/poe/pkg/db"
)

// Prefix constants for the top level key ranges
const (
	prefixContract byte = iota + 1
	prefixState
	prefixBank
	prefixChain
)

// PrefixToString converts a prefix byte to a string
func PrefixToString(p byte) string {
	switch p {
	case prefixContract:
		return "contract"
	case prefixState:
		return "state"
	case prefixBank:
		return "bank"
	case prefixChain:
		return "chain"
	default:
		return "unknown"
	}
}

// makeKey creates a key from a prefix and a length-prefixed component
func makeKey(prefix byte, component []byte, rest ...[]byte) []byte {
	size := 2 + len(component)
	for _, r := range rest {
		size += len(r)
	}
	key := make([]byte, 0, size)
	key = append(key, prefix, byte(len(component)))
	key = append(key, component...)
	for _, r := range rest {
		key = append(key, r...)
	}
	return key
}

// ContractKey is where the kind of the contract at addr is recorded.
func ContractKey(addr address.Address) []byte {
	return makeKey(prefixContract, addr.Bytes())
}

// ContractRange spans every contract registration.
func ContractRange() (start, end []byte) {
	return []byte{prefixContract}, []byte{prefixContract + 1}
}

// ContractFromKey recovers the address from a ContractKey.
func ContractFromKey(key []byte) (address.Address, error) {
	if len(key) > 0 && key[0] != prefixContract {
		return "", fmt.Errorf("store: expected contract key, got %s key %x", PrefixToString(key[0]), key)
	}
	if len(key) < 2 || int(key[1]) != len(key)-2 {
		return "", fmt.Errorf("store: malformed contract key %x", key)
	}
	return address.Address(key[2:]), nil
}

// BalanceKey locates the balance of addr in denom.
func BalanceKey(denom string, addr address.Address) []byte {
	return makeKey(prefixBank, []byte(denom), addr.Bytes())
}

// ChainKey locates chain level metadata.
func ChainKey(name string) []byte {
	return makeKey(prefixChain, []byte(name))
}

// Namespace is the key range owned by a single contract. Contracts derive all
// their keys from it so that two contracts can never collide.
type Namespace struct {
	prefix []byte
}

func ContractNamespace(contract address.Address) Namespace {
	return Namespace{prefix: makeKey(prefixState, contract.Bytes())}
}

// Key builds prefix | sub | parts...
func (n Namespace) Key(sub byte, parts ...[]byte) []byte {
	size := len(n.prefix) + 1
	for _, p := range parts {
		size += len(p)
	}
	key := make([]byte, 0, size)
	key = append(key, n.prefix...)
	key = append(key, sub)
	for _, p := range parts {
		key = append(key, p...)
	}
	return key
}

// Range returns the bounds of every key under sub.
func (n Namespace) Range(sub byte) (start, end []byte) {
	start = n.Key(sub)
	end = n.Key(sub + 1)
	return start, end
}

// Suffix strips the namespace and sub prefix from key.
func (n Namespace) Suffix(sub byte, key []byte) []byte {
	return key[len(n.prefix)+1:]
}

// Get wraps r.Get, reporting absence as ok=false instead of an error.
func Get(r db.Reader, key []byte) ([]byte, bool, error) {
	v, err := r.Get(key)
	if errors.Is(err, db.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// Has reports whether key is present.
func Has(r db.Reader, key []byte) (bool, error) {
	_, ok, err := Get(r, key)
	return ok, err
}

// Collect visits keys in [start, end) in order, stopping after limit entries
// when limit > 0. Entries are gathered before fn runs so fn may write.
func Collect(r db.Reader, start, end []byte, limit int, fn func(key, value []byte) error) error {
	iter, err := r.NewIterator(start, end)
	if err != nil {
		return fmt.Errorf("create iterator: %w", err)
	}
	type entry struct{ key, value []byte }
	var entries []entry
	for iter.Next() {
		v, err := iter.Value()
		if err != nil {
			_ = iter.Close()
			return fmt.Errorf("read iterator value: %w", err)
		}
		entries = append(entries, entry{key: iter.Key(), value: v})
		if limit > 0 && len(entries) == limit {
			break
		}
	}
	if err := iter.Close(); err != nil {
		return fmt.Errorf("close iterator: %w", err)
	}
	for _, e := range entries {
		if err := fn(e.key, e.value); err != nil {
			return err
		}
	}
	return nil
}

// After returns the smallest key strictly greater than key.
func After(key []byte) []byte {
	next := make([]byte, len(key)+1)
	copy(next, key)
	return next
}
