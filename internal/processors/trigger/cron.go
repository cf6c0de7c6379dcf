package trigger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bakkerme/rctbc-bins/internal/core"
	"github.com/robfig/cron/v3"
)

// CronProcessor fires refresh events on a cron schedule ("@every 6h" by default).
type CronProcessor struct {
	name     string
	schedule string
	location *time.Location
	now      func() time.Time

	mu     sync.Mutex
	cron   *cron.Cron
	events chan core.TriggerEvent
}

func NewCronProcessor(schedule string, location *time.Location) *CronProcessor {
	if location == nil {
		location = time.UTC
	}
	return &CronProcessor{
		name:     "cron",
		schedule: schedule,
		location: location,
		now:      time.Now,
	}
}

func (c *CronProcessor) Name() string {
	return c.name
}

func (c *CronProcessor) Validate() error {
	if c.schedule == "" {
		return fmt.Errorf("cron schedule is required")
	}
	if _, err := cron.ParseStandard(c.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", c.schedule, err)
	}
	return nil
}

// Start emits one event per tick. Ticks are dropped while a previous event is unconsumed.
func (c *CronProcessor) Start(ctx context.Context) (<-chan core.TriggerEvent, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil {
		return nil, fmt.Errorf("cron trigger already started")
	}

	events := make(chan core.TriggerEvent, 1)
	scheduler := cron.New(cron.WithLocation(c.location))
	_, err := scheduler.AddFunc(c.schedule, func() {
		select {
		case events <- core.TriggerEvent{Source: c.name, Timestamp: c.now().UTC()}:
		default:
		}
	})
	if err != nil {
		return nil, err
	}
	c.cron = scheduler
	c.events = events
	scheduler.Start()

	go func() {
		<-ctx.Done()
		_ = c.Stop()
	}()

	return events, nil
}

func (c *CronProcessor) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil {
		<-c.cron.Stop().Done()
		c.cron = nil
	}
	if c.events != nil {
		close(c.events)
		c.events = nil
	}
	return nil
}
