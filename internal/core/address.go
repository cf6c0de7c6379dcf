package core

import (
	"fmt"
	"strings"
	"unicode"
)

// AddressKey identifies the council page for one property.
type AddressKey struct {
	PropertyNumber string
	Postcode       string
}

// NewAddressKey builds a key with a normalized postcode.
func NewAddressKey(propertyNumber, postcode string) AddressKey {
	return AddressKey{
		PropertyNumber: strings.TrimSpace(propertyNumber),
		Postcode:       NormalizePostcode(postcode),
	}
}

// NormalizePostcode strips all whitespace and upper-cases the postcode,
// so "cf10 1ab" becomes "CF101AB".
func NormalizePostcode(postcode string) string {
	return strings.ToUpper(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, postcode))
}

func (a AddressKey) String() string {
	return fmt.Sprintf("%s %s", a.PropertyNumber, a.Postcode)
}
