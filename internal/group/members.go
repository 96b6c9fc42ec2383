package group

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/eigerco/poe/internal/address"
	"github.com/eigerco/poe/internal/safemath"
	"github.com/eigerco/poe/internal/store"
	"github.com/eigerco/poe/pkg/db"
)

// Sub-spaces of a contract namespace used by this package.
const (
	subAdmin     byte = 'a'
	subMembers   byte = 'm'
	subByPoints  byte = 'p'
	subTotal     byte = 't'
	subHooks     byte = 'h'
	subHookOrder byte = 'H'
	subHookSeq   byte = 'n'
)

// Page sizes for member listings.
const (
	DefaultLimit = 30
	MaxLimit     = 100
)

// Limit clamps a requested page size.
func Limit(requested uint32) int {
	switch {
	case requested == 0:
		return DefaultLimit
	case requested > MaxLimit:
		return MaxLimit
	default:
		return int(requested)
	}
}

// Members is the member map, by-points index and total of one contract.
type Members struct {
	ns store.Namespace
}

func NewMembers(contract address.Address) Members {
	return Members{ns: store.ContractNamespace(contract)}
}

// PointsOf reads the points of member in the source at contract. Contracts
// use it to read other contracts' state without a message round trip.
func PointsOf(r db.Reader, contract, member address.Address) (uint64, error) {
	return NewMembers(contract).Points(r, member)
}

// TotalOf reads the total points of the source at contract.
func TotalOf(r db.Reader, contract address.Address) (uint64, error) {
	return NewMembers(contract).Total(r)
}

func (m Members) Get(r db.Reader, addr address.Address) (Member, bool, error) {
	v, ok, err := store.Get(r, m.ns.Key(subMembers, addr.Bytes()))
	if err != nil || !ok {
		return Member{Addr: addr}, false, err
	}
	d := store.NewDecoder(v)
	member := Member{Addr: addr, Points: d.Uint64(), StartHeight: d.Uint64()}
	if err := d.Err(); err != nil {
		return Member{}, false, fmt.Errorf("decode member %s: %w", addr, err)
	}
	return member, true, nil
}

// Points returns 0 for non-members.
func (m Members) Points(r db.Reader, addr address.Address) (uint64, error) {
	member, _, err := m.Get(r, addr)
	return member.Points, err
}

func (m Members) Total(r db.Reader) (uint64, error) {
	return store.GetUint64(r, m.ns.Key(subTotal))
}

// Set replaces the points of addr, removing it when points is 0, and keeps
// the index and total in step. A member joining records height as its
// start height.
func (m Members) Set(rw db.ReadWriter, height uint64, addr address.Address, points uint64) (MemberDiff, error) {
	if err := addr.Validate(); err != nil {
		return MemberDiff{}, fmt.Errorf("%w: %w", ErrInvalidMember, err)
	}
	current, found, err := m.Get(rw, addr)
	if err != nil {
		return MemberDiff{}, err
	}
	diff := MemberDiff{Addr: addr, Old: current.Points, New: points}
	if current.Points == points {
		return diff, nil
	}
	total, err := m.Total(rw)
	if err != nil {
		return MemberDiff{}, err
	}
	total, err = safemath.ApplyDelta(total, current.Points, points)
	if err != nil {
		return MemberDiff{}, fmt.Errorf("total points: %w", err)
	}
	if found {
		if err := rw.Delete(m.indexKey(current.Points, addr)); err != nil {
			return MemberDiff{}, err
		}
	}
	if points == 0 {
		if err := rw.Delete(m.ns.Key(subMembers, addr.Bytes())); err != nil {
			return MemberDiff{}, err
		}
	} else {
		start := height
		if found {
			start = current.StartHeight
		}
		enc := (&store.Encoder{}).Uint64(points).Uint64(start)
		if err := rw.Put(m.ns.Key(subMembers, addr.Bytes()), enc.Bytes()); err != nil {
			return MemberDiff{}, err
		}
		if err := rw.Put(m.indexKey(points, addr), nil); err != nil {
			return MemberDiff{}, err
		}
	}
	if err := store.PutUint64(rw, m.ns.Key(subTotal), total); err != nil {
		return MemberDiff{}, err
	}
	return diff, nil
}

// List returns members ordered by address, starting after startAfter.
func (m Members) List(r db.Reader, startAfter address.Address, limit int) ([]Member, error) {
	start, end := m.ns.Range(subMembers)
	if startAfter != "" {
		start = store.After(m.ns.Key(subMembers, startAfter.Bytes()))
	}
	members := []Member{}
	err := store.Collect(r, start, end, limit, func(key, value []byte) error {
		d := store.NewDecoder(value)
		member := Member{
			Addr:        address.Address(m.ns.Suffix(subMembers, key)),
			Points:      d.Uint64(),
			StartHeight: d.Uint64(),
		}
		if err := d.Err(); err != nil {
			return fmt.Errorf("decode member %s: %w", member.Addr, err)
		}
		members = append(members, member)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

// ListByPoints returns members by descending points, ties broken by
// ascending address, starting after startAfter.
func (m Members) ListByPoints(r db.Reader, startAfter *Member, limit int) ([]Member, error) {
	start, end := m.ns.Range(subByPoints)
	if startAfter != nil {
		start = store.After(m.indexKey(startAfter.Points, startAfter.Addr))
	}
	members := []Member{}
	err := store.Collect(r, start, end, limit, func(key, _ []byte) error {
		suffix := m.ns.Suffix(subByPoints, key)
		if len(suffix) < 8 {
			return fmt.Errorf("malformed points index key %x", key)
		}
		addr := address.Address(suffix[8:])
		member, found, err := m.Get(r, addr)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("points index references missing member %s", addr)
		}
		members = append(members, member)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list members by points: %w", err)
	}
	return members, nil
}

// All loads every member in address order.
func (m Members) All(r db.Reader) ([]Member, error) {
	return m.List(r, "", 0)
}

func (m Members) indexKey(points uint64, addr address.Address) []byte {
	var rank [8]byte
	binary.BigEndian.PutUint64(rank[:], math.MaxUint64-points)
	return m.ns.Key(subByPoints, rank[:], addr.Bytes())
}
