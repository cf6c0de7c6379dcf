package reading

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bakkerme/rctbc-bins/internal/core"
	"github.com/bakkerme/rctbc-bins/internal/schedule"
	"github.com/bakkerme/rctbc-bins/internal/sources/council/mock"
)

func TestValidateAcceptsResolvableAddress(t *testing.T) {
	t.Parallel()

	fetcher := &mock.Fetcher{BodyByAddress: map[core.AddressKey]string{testAddress: resolvedPage}}
	entry, err := Validate(context.Background(), fetcher, schedule.NewParser(time.UTC), "12", "cf10 1ab", fixedClock, nil)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if entry.Title != "RCTBC 12 CF101AB" {
		t.Fatalf("Title = %q, want %q", entry.Title, "RCTBC 12 CF101AB")
	}
	if entry.Address != testAddress {
		t.Fatalf("Address = %+v, want %+v", entry.Address, testAddress)
	}
}

func TestValidateRejectsUnresolvedAddress(t *testing.T) {
	t.Parallel()

	cases := map[string]*mock.Fetcher{
		"empty page":    {BodyByAddress: map[core.AddressKey]string{testAddress: emptyPage}},
		"fetch failure": {ErrByAddress: map[core.AddressKey]error{testAddress: core.ErrFetch}},
	}
	for name, fetcher := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Validate(context.Background(), fetcher, schedule.NewParser(time.UTC), "12", "CF10 1AB", fixedClock, nil)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			if vErr.Code != ValidationInvalidAddress {
				t.Fatalf("Code = %q, want %q", vErr.Code, ValidationInvalidAddress)
			}
			if !errors.Is(err, core.ErrInvalidAddress) {
				t.Fatalf("Validate() error = %v, want ErrInvalidAddress", err)
			}
		})
	}
}

func TestValidateUnexpectedFailureIsUnknown(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := &mock.Fetcher{ErrByAddress: map[core.AddressKey]error{testAddress: context.Canceled}}
	_, err := Validate(ctx, fetcher, schedule.NewParser(time.UTC), "12", "CF101AB", fixedClock, nil)
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.Code != ValidationUnknown {
		t.Fatalf("Validate() error = %v, want unknown validation error", err)
	}

	_, err = Validate(context.Background(), &mock.Fetcher{}, schedule.NewParser(time.UTC), " ", "CF101AB", fixedClock, nil)
	if !errors.As(err, &vErr) || vErr.Code != ValidationUnknown {
		t.Fatalf("Validate() error = %v, want unknown validation error", err)
	}
}
