package dedupe

import (
	"context"
	"sync"

	"github.com/bakkerme/rctbc-bins/internal/core"
)

// SentStore remembers the last collection key each reminder sent for an address.
type SentStore interface {
	LastSent(ctx context.Context, reminder string, address core.AddressKey) (string, error)
	RecordSent(ctx context.Context, reminder string, address core.AddressKey, key string) error
	Close() error
}

// CollectionKey identifies one collection event for reminder deduplication.
func CollectionKey(r core.CollectionReading) string {
	return r.WasteDate + "|" + string(r.NextCollection)
}

// MemoryStore is the default ledger; it is lost when the process exits.
type MemoryStore struct {
	mu   sync.Mutex
	sent map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sent: map[string]string{}}
}

func (m *MemoryStore) LastSent(ctx context.Context, reminder string, address core.AddressKey) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[rowID(reminder, address)], nil
}

func (m *MemoryStore) RecordSent(ctx context.Context, reminder string, address core.AddressKey, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent[rowID(reminder, address)] = key
	return nil
}

func (m *MemoryStore) Close() error { return nil }

func rowID(reminder string, address core.AddressKey) string {
	return reminder + "/" + address.PropertyNumber + "/" + address.Postcode
}
