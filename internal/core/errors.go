package core

import (
	"errors"
	"fmt"
)

var (
	// ErrFetch covers non-200 responses and transport failures alike.
	ErrFetch = errors.New("council page fetch failed")
	// ErrUnresolvedAddress means the page carried no collection data for the address.
	ErrUnresolvedAddress = errors.New("no collection data for address")
	// ErrMalformedDate propagates like ErrUnresolvedAddress.
	ErrMalformedDate = fmt.Errorf("malformed waste date: %w", ErrUnresolvedAddress)
	// ErrInvalidAddress is returned by the configuration-time address check.
	ErrInvalidAddress = errors.New("invalid address")
)
