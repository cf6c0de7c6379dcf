package reading

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/bakkerme/rctbc-bins/internal/core"
	"github.com/bakkerme/rctbc-bins/internal/sources/council"
)

// PageParser is the parsing half of a refresh.
type PageParser interface {
	Parse(body []byte, now time.Time) (core.CollectionReading, error)
}

// Cache holds the last-known reading for a single address.
// Refresh is not safe for concurrent use; Current may be called from any goroutine.
type Cache struct {
	address core.AddressKey
	fetcher council.Fetcher
	parser  PageParser
	logger  *slog.Logger
	current atomic.Pointer[core.CollectionReading]
}

func NewCache(address core.AddressKey, fetcher council.Fetcher, parser PageParser, logger *slog.Logger) (*Cache, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("council fetcher is required")
	}
	if parser == nil {
		return nil, fmt.Errorf("page parser is required")
	}
	if address.PropertyNumber == "" {
		return nil, fmt.Errorf("property number is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		address: address,
		fetcher: fetcher,
		parser:  parser,
		logger:  logger,
	}, nil
}

func (c *Cache) Address() core.AddressKey {
	return c.address
}

// Current returns the stored reading, or the empty reading before the first resolution.
func (c *Cache) Current() core.CollectionReading {
	if r := c.current.Load(); r != nil {
		return *r
	}
	return core.EmptyReading()
}

// Refresh fetches and parses the council page once.
//
// A fetch failure keeps whatever was stored before. A page that was fetched but
// carries no usable data resets the cache to the empty reading.
func (c *Cache) Refresh(ctx context.Context, clock func() time.Time) error {
	if clock == nil {
		clock = time.Now
	}
	logger := core.LoggerFromContext(ctx, c.logger).With("address", c.address.String())
	defer func() {
		if !c.Current().Resolved() {
			logger.Warn("unable to retrieve bin collection data")
		}
	}()

	body, err := c.fetcher.Fetch(ctx, c.address)
	if err != nil {
		logger.Warn("council fetch failed, keeping previous reading", "error", err)
		return err
	}

	reading, err := c.parser.Parse(body, clock())
	switch {
	case err == nil:
		c.store(reading)
		logger.Debug("bin collection reading updated", "next_collection", reading.NextCollection, "waste_date", reading.WasteDate)
		return nil
	case errors.Is(err, core.ErrMalformedDate):
		logger.Error("council page has a malformed waste date", "error", err)
	case errors.Is(err, core.ErrUnresolvedAddress):
		logger.Info("council page has no collection data for address", "error", err)
	default:
		logger.Error("unexpected parser failure", "error", err)
		err = fmt.Errorf("%w: %v", core.ErrUnresolvedAddress, err)
	}
	c.store(core.EmptyReading())
	return err
}

func (c *Cache) store(r core.CollectionReading) {
	c.current.Store(&r)
}
