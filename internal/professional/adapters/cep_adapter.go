package adapters

import (
	"context"

	addressmodels "clinic/internal/address/models"
	"clinic/internal/contact"
)

// CEPFinder is the slice of the address service the professional module needs.
type CEPFinder interface {
	Lookup(ctx context.Context, zipCode string) (*addressmodels.Address, error)
}

// CEPAdapter exposes CEP lookups as contact input for address prefill.
type CEPAdapter struct {
	finder CEPFinder
}

func NewCEPAdapter(finder CEPFinder) *CEPAdapter {
	return &CEPAdapter{finder: finder}
}

func (a *CEPAdapter) Lookup(ctx context.Context, zipCode string) (contact.AddressParams, error) {
	address, err := a.finder.Lookup(ctx, zipCode)
	if err != nil {
		return contact.AddressParams{}, err
	}
	return address.Params(), nil
}
