package stake

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/holiman/uint256"

	"github.com/eigerco/poe/internal/address"
	"github.com/eigerco/poe/internal/store"
	"github.com/eigerco/poe/pkg/db"
)

// Sub-spaces next to the ones group uses for membership.
const (
	subConfig  byte = 'c'
	subBonded  byte = 'b'
	subClaims  byte = 'u'
	subRelease byte = 'r'
)

func loadConfig(r db.Reader, contract address.Address) (Config, error) {
	v, err := r.Get(store.ContractNamespace(contract).Key(subConfig))
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	d := store.NewDecoder(v)
	cfg := Config{
		Denom:           d.String(),
		TokensPerPoint:  d.Uint64(),
		UnbondingPeriod: time.Duration(d.Uint64()),
		AutoReturnLimit: d.Uint64(),
	}
	cfg.MinBond.SetBytes32(d.Bytes32())
	return cfg, d.Err()
}

func saveConfig(w db.Writer, contract address.Address, cfg Config) error {
	enc := (&store.Encoder{}).
		String(cfg.Denom).
		Uint64(cfg.TokensPerPoint).
		Uint64(uint64(cfg.UnbondingPeriod)).
		Uint64(cfg.AutoReturnLimit).
		Bytes32(cfg.MinBond.Bytes32())
	return w.Put(store.ContractNamespace(contract).Key(subConfig), enc.Bytes())
}

func bondedKey(contract, addr address.Address) []byte {
	return store.ContractNamespace(contract).Key(subBonded, addr.Bytes())
}

// Bonded returns the tokens addr has bonded in the stake contract.
func Bonded(r db.Reader, contract, addr address.Address) (*uint256.Int, error) {
	v, err := store.GetUint256(r, bondedKey(contract, addr))
	if err != nil {
		return nil, fmt.Errorf("load stake %s: %w", addr, err)
	}
	return v, nil
}

func saveBonded(w db.ReadWriter, contract, addr address.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return w.Delete(bondedKey(contract, addr))
	}
	return store.PutUint256(w, bondedKey(contract, addr), amount)
}

func timeKey(t time.Time) []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(t.UnixNano()))
}

func keyTime(b []byte) time.Time {
	return time.Unix(0, int64(binary.BigEndian.Uint64(b))).UTC()
}

// afterAnyTime sorts after every 8 byte time key.
var afterAnyTime = bytes.Repeat([]byte{0xff}, 9)

// addrKey length-prefixes addr so that the claims of "ab" never sort
// inside the range of "a".
func addrKey(addr address.Address) []byte {
	return append([]byte{byte(len(addr))}, addr...)
}

// claims keeps pending claims by (owner, release time) and a second index
// by (release time, owner) so that matured claims of everyone can be found
// in release order.
type claims struct {
	ns store.Namespace
}

func newClaims(contract address.Address) claims {
	return claims{ns: store.ContractNamespace(contract)}
}

func (c claims) key(addr address.Address, releaseAt time.Time) []byte {
	return c.ns.Key(subClaims, addrKey(addr), timeKey(releaseAt))
}

func (c claims) releaseKey(addr address.Address, releaseAt time.Time) []byte {
	return c.ns.Key(subRelease, timeKey(releaseAt), addr.Bytes())
}

func (c claims) decode(addr address.Address, releaseAt time.Time, v []byte) (PendingClaim, error) {
	d := store.NewDecoder(v)
	claim := PendingClaim{Addr: addr, ReleaseAt: releaseAt}
	claim.Amount.SetBytes32(d.Bytes32())
	claim.CreationHeight = d.Uint64()
	if err := d.Err(); err != nil {
		return PendingClaim{}, fmt.Errorf("decode claim of %s: %w", addr, err)
	}
	return claim, nil
}

func (c claims) get(r db.Reader, addr address.Address, releaseAt time.Time) (PendingClaim, bool, error) {
	v, ok, err := store.Get(r, c.key(addr, releaseAt))
	if err != nil || !ok {
		return PendingClaim{}, false, err
	}
	claim, err := c.decode(addr, releaseAt, v)
	return claim, err == nil, err
}

func (c claims) save(rw db.ReadWriter, claim PendingClaim) error {
	enc := (&store.Encoder{}).Bytes32(claim.Amount.Bytes32()).Uint64(claim.CreationHeight)
	if err := rw.Put(c.key(claim.Addr, claim.ReleaseAt), enc.Bytes()); err != nil {
		return err
	}
	return rw.Put(c.releaseKey(claim.Addr, claim.ReleaseAt), nil)
}

func (c claims) remove(rw db.ReadWriter, claim PendingClaim) error {
	if err := rw.Delete(c.key(claim.Addr, claim.ReleaseAt)); err != nil {
		return err
	}
	return rw.Delete(c.releaseKey(claim.Addr, claim.ReleaseAt))
}

// create adds amount to the claim of addr released at releaseAt.
func (c claims) create(rw db.ReadWriter, addr address.Address, amount *uint256.Int, releaseAt time.Time, height uint64) error {
	claim, found, err := c.get(rw, addr, releaseAt)
	if err != nil {
		return err
	}
	if !found {
		claim = PendingClaim{Addr: addr, ReleaseAt: releaseAt, CreationHeight: height}
	}
	if _, overflow := claim.Amount.AddOverflow(&claim.Amount, amount); overflow {
		return fmt.Errorf("claim of %s: %w", addr, ErrOverflow)
	}
	return c.save(rw, claim)
}

// of lists the claims of addr released after startAfter (all when nil), in
// release order.
func (c claims) of(r db.Reader, addr address.Address, startAfter *time.Time, limit int) ([]PendingClaim, error) {
	start := c.ns.Key(subClaims, addrKey(addr))
	if startAfter != nil {
		start = store.After(c.key(addr, *startAfter))
	}
	return c.collect(r, addr, start, c.ns.Key(subClaims, addrKey(addr), afterAnyTime), limit)
}

// matured lists every claim of addr released at or before now.
func (c claims) matured(r db.Reader, addr address.Address, now time.Time) ([]PendingClaim, error) {
	return c.collect(r, addr, c.ns.Key(subClaims, addrKey(addr)), store.After(c.key(addr, now)), 0)
}

func (c claims) collect(r db.Reader, addr address.Address, start, end []byte, limit int) ([]PendingClaim, error) {
	prefix := len(c.ns.Key(subClaims, addrKey(addr)))
	list := []PendingClaim{}
	err := store.Collect(r, start, end, limit, func(key, value []byte) error {
		claim, err := c.decode(addr, keyTime(key[prefix:]), value)
		if err != nil {
			return err
		}
		list = append(list, claim)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list claims of %s: %w", addr, err)
	}
	return list, nil
}

// expired lists up to limit claims of anyone released at or before now,
// oldest first.
func (c claims) expired(r db.Reader, now time.Time, limit int) ([]PendingClaim, error) {
	start, _ := c.ns.Range(subRelease)
	end := c.ns.Key(subRelease, timeKey(now.Add(1)))
	prefix := len(start)
	var list []PendingClaim
	err := store.Collect(r, start, end, limit, func(key, _ []byte) error {
		releaseAt := keyTime(key[prefix : prefix+8])
		addr := address.Address(key[prefix+8:])
		claim, found, err := c.get(r, addr, releaseAt)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("claim index points at missing claim of %s", addr)
		}
		list = append(list, claim)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list expired claims: %w", err)
	}
	return list, nil
}
