package reading

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bakkerme/rctbc-bins/internal/core"
	"github.com/bakkerme/rctbc-bins/internal/sources/council"
)

const (
	ValidationInvalidAddress = "invalid_address"
	ValidationUnknown        = "unknown"
)

// ValidationError carries the form-level error code for a rejected address.
type ValidationError struct {
	Code string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Entry is an accepted address.
type Entry struct {
	Title   string
	Address core.AddressKey
}

// Validate is the configuration-time gate: it performs one fetch and parse and
// rejects the address when no collection data comes back.
func Validate(ctx context.Context, fetcher council.Fetcher, parser PageParser, number, postcode string, clock func() time.Time, logger *slog.Logger) (Entry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	address := core.NewAddressKey(number, postcode)
	if strings.TrimSpace(address.PropertyNumber) == "" || address.Postcode == "" {
		err := fmt.Errorf("property number and postcode are required")
		logger.Error("unexpected error validating address", "error", err)
		return Entry{}, &ValidationError{Code: ValidationUnknown, Err: err}
	}

	cache, err := NewCache(address, fetcher, parser, logger)
	if err != nil {
		logger.Error("unexpected error validating address", "address", address.String(), "error", err)
		return Entry{}, &ValidationError{Code: ValidationUnknown, Err: err}
	}

	refreshErr := cache.Refresh(ctx, clock)
	if ctxErr := ctxError(ctx); ctxErr != nil {
		logger.Error("unexpected error validating address", "address", address.String(), "error", ctxErr)
		return Entry{}, &ValidationError{Code: ValidationUnknown, Err: ctxErr}
	}
	if !cache.Current().Resolved() {
		cause := core.ErrInvalidAddress
		if refreshErr != nil {
			cause = fmt.Errorf("%w: %w", core.ErrInvalidAddress, refreshErr)
		}
		return Entry{}, &ValidationError{Code: ValidationInvalidAddress, Err: cause}
	}

	return Entry{
		Title:   fmt.Sprintf("RCTBC %s %s", address.PropertyNumber, address.Postcode),
		Address: address,
	}, nil
}

func ctxError(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}
