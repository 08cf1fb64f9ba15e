package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lcalzada-xor/trafficdash/internal/adapters/cli"
	"github.com/lcalzada-xor/trafficdash/internal/app"
	"github.com/lcalzada-xor/trafficdash/internal/config"
	"github.com/lcalzada-xor/trafficdash/internal/core/domain"
	"github.com/lcalzada-xor/trafficdash/internal/telemetry"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// load config
	cfg, args, err := config.Load("trafficdash", os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		slog.Error("Invalid configuration", "error", err)
		return 2
	}

	// Setup Structured Logging; stdout is reserved for command output
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()}))
	slog.SetDefault(logger)

	// Initialize Tracing
	if cfg.Trace {
		shutdownTracer, err := telemetry.InitTracer("trafficdash", version, os.Stderr)
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

	// Initialize Application
	application, err := app.New(cfg, os.Stdout, os.Stderr, version)
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)
		return 1
	}
	defer application.Close()

	// Root Context with cancellation on Interrupt
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := application.Run(ctx, args); err != nil {
		return report(err)
	}
	return 0
}

func report(err error) int {
	switch {
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, cli.ErrUsage):
		slog.Error("Usage error", "error", err)
		return 2
	}
	if apiErr, ok := domain.AsAPIError(err); ok {
		slog.Error("Request failed", "code", apiErr.Code, "message", apiErr.Message)
		return 1
	}
	slog.Error("Command failed", "error", err)
	return 1
}
