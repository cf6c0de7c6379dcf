package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bakkerme/rctbc-bins/internal/api"
	"github.com/bakkerme/rctbc-bins/internal/config"
	"github.com/bakkerme/rctbc-bins/internal/observability/otelx"
	"github.com/bakkerme/rctbc-bins/internal/reading"
	"github.com/bakkerme/rctbc-bins/internal/runner"
	"github.com/bakkerme/rctbc-bins/internal/runner/factory"
)

func main() {
	env := config.LoadEnv()

	configPath := flag.String("config", env.ConfigPath, "path to rctbc document")
	runOnce := flag.Bool("run-once", env.RunOnce, "refresh every address once, print sensors and exit")
	validate := flag.Bool("validate", false, "check a single address against the council site and exit")
	number := flag.String("number", "", "property number for -validate")
	postcode := flag.String("postcode", "", "postcode for -validate")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := otelx.Init(ctx, logger, env.OTel)
	if err != nil {
		log.Fatalf("failed to init tracing: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	f := factory.NewFromEnvConfig(logger, env)

	if *validate {
		entry, err := reading.Validate(ctx, f.Fetcher, f.Parser, *number, *postcode, time.Now, logger)
		if err != nil {
			logger.Error("address rejected", "error", err)
			stop()
			os.Exit(1)
		}
		fmt.Println(entry.Title)
		return
	}

	doc, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load document: %v", err)
	}
	if err := f.OpenLedger(env.StateDB); err != nil {
		log.Fatalf("%v", err)
	}
	defer f.Close()
	components, err := f.Build(doc)
	if err != nil {
		log.Fatalf("failed to build components: %v", err)
	}
	r := runner.New(logger, components.Caches, runner.WithOutputs(components.Outputs...))

	if *runOnce {
		run, err := r.RunOnce(ctx)
		if err != nil {
			log.Fatalf("run failed: %v", err)
		}
		sensors := make([]reading.Sensor, 0, len(run.Results))
		for _, res := range run.Results {
			sensors = append(sensors, res.Sensor)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(sensors); err != nil {
			log.Fatalf("encode sensors: %v", err)
		}
		return
	}

	// Populate readings at startup rather than waiting for the first tick.
	if _, err := r.RunOnce(ctx); err != nil {
		logger.Error("initial refresh failed", "error", err)
	}
	if err := r.Start(ctx, components.Trigger); err != nil {
		log.Fatalf("failed to start runner: %v", err)
	}

	var server *api.Server
	if env.HTTPAddr != "" {
		server = api.NewServer(r, func(ctx context.Context, number, postcode string) (reading.Entry, error) {
			return reading.Validate(ctx, f.Fetcher, f.Parser, number, postcode, time.Now, logger)
		}, logger)
		go func() {
			logger.Info("sensor api listening", "addr", env.HTTPAddr)
			if err := server.Start(env.HTTPAddr); err != nil {
				logger.Error("sensor api stopped", "error", err)
				stop()
			}
		}()
	}

	<-ctx.Done()
	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("sensor api shutdown failed", "error", err)
		}
		cancel()
	}
	if err := components.Trigger.Stop(); err != nil {
		logger.Warn("trigger stop failed", "error", err)
	}
	select {
	case <-r.Done():
	case <-time.After(10 * time.Second):
		logger.Warn("refresh loop did not stop in time")
	}
}
