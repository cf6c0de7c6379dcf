package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/bakkerme/rctbc-bins/internal/core"
)

type Fetcher struct {
	BodyByAddress map[core.AddressKey]string
	ErrByAddress  map[core.AddressKey]error

	mu    sync.Mutex
	calls []core.AddressKey
}

func (f *Fetcher) Fetch(ctx context.Context, address core.AddressKey) ([]byte, error) {
	_ = ctx
	f.mu.Lock()
	f.calls = append(f.calls, address)
	f.mu.Unlock()

	if f.ErrByAddress != nil {
		if err, ok := f.ErrByAddress[address]; ok {
			return nil, err
		}
	}
	body, ok := f.BodyByAddress[address]
	if !ok {
		return nil, fmt.Errorf("%w: no page for %s", core.ErrFetch, address)
	}
	return []byte(body), nil
}

// Calls returns the addresses fetched so far, in order.
func (f *Fetcher) Calls() []core.AddressKey {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.AddressKey(nil), f.calls...)
}
