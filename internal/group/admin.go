package group

import (
	"fmt"

	"github.com/eigerco/poe/internal/address"
	"github.com/eigerco/poe/internal/store"
	"github.com/eigerco/poe/pkg/db"
)

// Admin is the optional administrator of one contract.
type Admin struct {
	ns store.Namespace
}

func NewAdmin(contract address.Address) Admin {
	return Admin{ns: store.ContractNamespace(contract)}
}

// Get returns nil when the contract has no admin.
func (a Admin) Get(r db.Reader) (*address.Address, error) {
	v, ok, err := store.Get(r, a.ns.Key(subAdmin))
	if err != nil || !ok {
		return nil, err
	}
	admin := address.Address(v)
	return &admin, nil
}

// Set stores admin, or clears it when admin is nil.
func (a Admin) Set(rw db.ReadWriter, admin *address.Address) error {
	if admin == nil {
		return rw.Delete(a.ns.Key(subAdmin))
	}
	if err := admin.Validate(); err != nil {
		return err
	}
	return rw.Put(a.ns.Key(subAdmin), admin.Bytes())
}

func (a Admin) IsAdmin(r db.Reader, addr address.Address) (bool, error) {
	admin, err := a.Get(r)
	if err != nil {
		return false, err
	}
	return admin != nil && *admin == addr, nil
}

// Assert fails with ErrUnauthorized unless sender is the admin.
func (a Admin) Assert(r db.Reader, sender address.Address) error {
	ok, err := a.IsAdmin(r, sender)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s is not admin", ErrUnauthorized, sender)
	}
	return nil
}
