package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lcalzada-xor/trafficdash/internal/app"
	"github.com/lcalzada-xor/trafficdash/internal/config"
	"github.com/lcalzada-xor/trafficdash/internal/telemetry"
)

var version = "dev"

func main() {
	// load config
	cfg, _, err := config.Load("trafficdash-mock", os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		slog.Error("Invalid configuration", "error", err)
		os.Exit(2)
	}

	// Setup Structured Logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel()}))
	slog.SetDefault(logger)

	// Initialize Tracing
	if cfg.Trace {
		shutdownTracer, err := telemetry.InitTracer("trafficdash-mock", version, os.Stderr)
		if err != nil {
			slog.Error("Failed to init tracer", "error", err)
		} else {
			defer func() {
				if err := shutdownTracer(context.Background()); err != nil {
					slog.Error("Failed to shutdown tracer", "error", err)
				}
			}()
		}
	}

	srv, err := app.NewMockBackend(cfg)
	if err != nil {
		slog.Error("Failed to initialize mock backend", "error", err)
		os.Exit(1)
	}
	srv.SetLogger(logger)

	// Root Context with cancellation on Interrupt
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := srv.Run(ctx); err != nil {
		slog.Error("Mock backend error", "error", err)
		cancel()
		os.Exit(1)
	}
}
