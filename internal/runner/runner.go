package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bakkerme/rctbc-bins/internal/core"
	"github.com/bakkerme/rctbc-bins/internal/reading"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/bakkerme/rctbc-bins/internal/runner"

// Runner refreshes every configured address and hands the results to the outputs.
type Runner struct {
	logger  *slog.Logger
	caches  []*reading.Cache
	outputs []core.OutputProcessor
	clock   func() time.Time
	tracer  trace.Tracer

	// runMu serializes runs; the trigger loop and API refreshes share the caches.
	runMu   sync.Mutex
	started atomic.Bool
	done    chan struct{}
}

type Option func(*Runner)

func WithClock(clock func() time.Time) Option {
	return func(r *Runner) {
		if clock != nil {
			r.clock = clock
		}
	}
}

func WithOutputs(outputs ...core.OutputProcessor) Option {
	return func(r *Runner) { r.outputs = append(r.outputs, outputs...) }
}

func New(logger *slog.Logger, caches []*reading.Cache, opts ...Option) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		logger: logger,
		caches: caches,
		clock:  time.Now,
		tracer: otel.Tracer(tracerName),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Result is the outcome of one address in a run.
type Result struct {
	Address core.AddressKey
	Reading core.CollectionReading
	Sensor  reading.Sensor
	Err     error
}

// Run summarises one pass over all addresses.
type Run struct {
	ID          string
	StartedAt   time.Time
	CompletedAt time.Time
	Results     []Result
}

// Caches exposes the per-address caches so a host can read current values between runs.
func (r *Runner) Caches() []*reading.Cache {
	return r.caches
}

// Start refreshes on every trigger event until ctx is done or the trigger stops.
func (r *Runner) Start(ctx context.Context, trigger core.TriggerProcessor) error {
	if trigger == nil {
		return fmt.Errorf("trigger is required")
	}
	if !r.started.CompareAndSwap(false, true) {
		return fmt.Errorf("runner already started")
	}
	events, err := trigger.Start(ctx)
	if err != nil {
		r.started.Store(false)
		return err
	}
	go func() {
		defer close(r.done)
		r.listen(ctx, events)
	}()
	return nil
}

// Done is closed once the trigger loop started by Start has returned.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// RunOnce refreshes each address in turn. Per-address failures are reported in the
// results; only context cancellation aborts the run. Concurrent calls wait for each other.
func (r *Runner) RunOnce(ctx context.Context) (*Run, error) {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	run := &Run{
		ID:        fmt.Sprintf("run-%d", time.Now().UnixNano()),
		StartedAt: r.clock().UTC(),
	}
	logger := r.logger.With("run_id", run.ID)
	ctx = core.WithLogger(core.WithRunID(ctx, run.ID), logger)

	ctx, span := r.tracer.Start(ctx, "rctbc.run", trace.WithAttributes(
		attribute.String("run.id", run.ID),
		attribute.Int("run.addresses", len(r.caches)),
	))
	defer span.End()

	for _, cache := range r.caches {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return run, err
		}
		run.Results = append(run.Results, r.refresh(ctx, cache))
	}

	run.CompletedAt = r.clock().UTC()
	logger.Info("refresh run complete", "addresses", len(run.Results), "failed", countFailed(run.Results))
	return run, nil
}

func (r *Runner) refresh(ctx context.Context, cache *reading.Cache) Result {
	address := cache.Address()
	ctx, span := r.tracer.Start(ctx, "rctbc.refresh", trace.WithAttributes(
		attribute.String("address", address.String()),
	))
	defer span.End()

	err := cache.Refresh(ctx, r.clock)
	current := cache.Current()
	span.SetAttributes(attribute.String("next_collection", string(current.NextCollection)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	logger := core.LoggerFromContext(ctx, r.logger)
	now := r.clock()
	for _, output := range r.outputs {
		if output == nil {
			continue
		}
		if derr := output.Deliver(ctx, address, current, now); derr != nil {
			logger.Error("output delivery failed", "output", output.Name(), "address", address.String(), "error", derr)
		}
	}

	return Result{
		Address: address,
		Reading: current,
		Sensor:  cache.Sensor(),
		Err:     err,
	}
}

func (r *Runner) listen(ctx context.Context, events <-chan core.TriggerEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			r.logger.Info("trigger event", "source", event.Source, "time", event.Timestamp)
			if _, err := r.RunOnce(ctx); err != nil {
				r.logger.Error("refresh run aborted", "error", err)
			}
		}
	}
}

func countFailed(results []Result) int {
	n := 0
	for _, res := range results {
		if res.Err != nil {
			n++
		}
	}
	return n
}
