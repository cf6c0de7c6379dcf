package core

import (
	"context"
	"time"
)

// Processor is the base interface for the pluggable stages around a refresh.
type Processor interface {
	// Name returns the processor name
	Name() string
	// Validate checks if the processor configuration is valid
	Validate() error
}

// TriggerEvent represents a trigger firing
type TriggerEvent struct {
	Source    string
	Timestamp time.Time
}

// TriggerProcessor decides when refreshes run.
type TriggerProcessor interface {
	Processor
	// Start begins the trigger and returns a channel of trigger events.
	// The channel is closed once the trigger stops.
	Start(ctx context.Context) (<-chan TriggerEvent, error)
	// Stop gracefully shuts down the trigger
	Stop() error
}

// OutputProcessor receives the reading produced by each refresh of an address.
type OutputProcessor interface {
	Processor
	Deliver(ctx context.Context, address AddressKey, reading CollectionReading, now time.Time) error
}
