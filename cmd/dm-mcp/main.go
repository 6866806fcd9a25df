// Package main provides the entry point for the Dungeon Master MCP server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/raphaelgruber/brogue-dm/internal/app"
	"github.com/raphaelgruber/brogue-dm/internal/config"
	"github.com/raphaelgruber/brogue-dm/internal/server"
	"github.com/raphaelgruber/brogue-dm/internal/tools"
)

const version = "0.1.0"

func main() {
	cfg := config.Load()

	logger, cleanup := config.SetupLogger("dm-mcp", cfg)
	defer cleanup()

	logger.Info("dm-mcp starting",
		"version", version,
		"provider", cfg.LLMProvider,
		"storage", cfg.Storage,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize narrator", "error", err)
		os.Exit(1)
	}
	defer func() {
		logger.Info("closing memory bank")
		_ = a.Close()
	}()

	deps := tools.NewDependencies(a, logger)
	srv := server.New(version, deps)
	srv.Setup(deps)

	logger.Info("server ready, awaiting connections")

	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}
