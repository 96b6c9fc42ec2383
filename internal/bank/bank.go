// Package bank keeps token balances per denom and address. It stands in for
// the host chain's bank module: rewards are paid into a ledger and paid out
// to members through it.
package bank

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/eigerco/poe/internal/address"
	"github.com/eigerco/poe/internal/store"
	"github.com/eigerco/poe/pkg/db"
)

var (
	ErrInsufficientFunds = errors.New("bank: insufficient funds")
	ErrInvalidDenom      = errors.New("bank: invalid denom")
	ErrOverflow          = errors.New("bank: balance overflow")
)

// Coin is an amount of a single denom.
type Coin struct {
	Denom  string
	Amount uint256.Int
}

// NewCoin is a shorthand for small literal amounts.
func NewCoin(denom string, amount uint64) Coin {
	return Coin{Denom: denom, Amount: *uint256.NewInt(amount)}
}

func (c Coin) String() string {
	return c.Amount.Dec() + c.Denom
}

// ValidateDenom accepts 1..64 bytes of lowercase letters, digits and '/'.
func ValidateDenom(denom string) error {
	if len(denom) == 0 || len(denom) > 64 {
		return fmt.Errorf("%w: %q", ErrInvalidDenom, denom)
	}
	for i := 0; i < len(denom); i++ {
		c := denom[i]
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '/' {
			return fmt.Errorf("%w: %q", ErrInvalidDenom, denom)
		}
	}
	return nil
}

// Keeper reads and writes balances through rw, which is normally the
// batch of the transaction being executed.
type Keeper struct {
	rw db.ReadWriter
}

func NewKeeper(rw db.ReadWriter) Keeper {
	return Keeper{rw: rw}
}

// Balance returns the amount of denom held by addr.
func (k Keeper) Balance(addr address.Address, denom string) (*uint256.Int, error) {
	return Balance(k.rw, addr, denom)
}

// Balance reads a balance without a keeper, for read-only queries.
func Balance(r db.Reader, addr address.Address, denom string) (*uint256.Int, error) {
	v, err := store.GetUint256(r, store.BalanceKey(denom, addr))
	if err != nil {
		return nil, fmt.Errorf("bank: load balance: %w", err)
	}
	return v, nil
}

// Mint creates coin out of thin air for addr. Only genesis and tests call it.
func (k Keeper) Mint(addr address.Address, coin Coin) error {
	if err := ValidateDenom(coin.Denom); err != nil {
		return err
	}
	bal, err := k.Balance(addr, coin.Denom)
	if err != nil {
		return err
	}
	if _, overflow := bal.AddOverflow(bal, &coin.Amount); overflow {
		return ErrOverflow
	}
	return k.set(addr, coin.Denom, bal)
}

// Burn destroys coin held by addr.
func (k Keeper) Burn(addr address.Address, coin Coin) error {
	if err := ValidateDenom(coin.Denom); err != nil {
		return err
	}
	bal, err := k.Balance(addr, coin.Denom)
	if err != nil {
		return err
	}
	if bal.Lt(&coin.Amount) {
		return fmt.Errorf("%w: %s has %s, burns %s", ErrInsufficientFunds, addr, bal.Dec(), coin.String())
	}
	return k.set(addr, coin.Denom, bal.Sub(bal, &coin.Amount))
}

// Send moves coin from one address to another.
func (k Keeper) Send(from, to address.Address, coin Coin) error {
	if err := ValidateDenom(coin.Denom); err != nil {
		return err
	}
	if coin.Amount.IsZero() || from == to {
		return nil
	}
	fromBal, err := k.Balance(from, coin.Denom)
	if err != nil {
		return err
	}
	if fromBal.Lt(&coin.Amount) {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientFunds, from, fromBal.Dec(), coin.String())
	}
	toBal, err := k.Balance(to, coin.Denom)
	if err != nil {
		return err
	}
	if _, overflow := toBal.AddOverflow(toBal, &coin.Amount); overflow {
		return ErrOverflow
	}
	fromBal.Sub(fromBal, &coin.Amount)
	if err := k.set(from, coin.Denom, fromBal); err != nil {
		return err
	}
	return k.set(to, coin.Denom, toBal)
}

func (k Keeper) set(addr address.Address, denom string, amount *uint256.Int) error {
	key := store.BalanceKey(denom, addr)
	if amount.IsZero() {
		return k.rw.Delete(key)
	}
	if err := store.PutUint256(k.rw, key, amount); err != nil {
		return fmt.Errorf("bank: store balance: %w", err)
	}
	return nil
}
