// Package main provides the HTTP server the game hooks talk to.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/raphaelgruber/brogue-dm/internal/api"
	"github.com/raphaelgruber/brogue-dm/internal/app"
	"github.com/raphaelgruber/brogue-dm/internal/config"
)

const version = "0.1.0"

func main() {
	wipe := flag.Bool("wipe", false, "wipe the durable memory bank on startup (testing only)")
	flag.Parse()

	cfg := config.Load()

	logger, cleanup := config.SetupLogger("dm-server", cfg)
	defer cleanup()

	logger.Info("dm-server starting",
		"version", version,
		"port", cfg.Port,
		"provider", cfg.LLMProvider,
		"storage", cfg.Storage,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	a, err := app.New(initCtx, cfg, logger)
	cancel()
	if err != nil {
		logger.Error("failed to initialize narrator", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("failed to close memory bank", "error", err)
		}
	}()

	if *wipe || os.Getenv("DM_WIPE_DB") == "true" {
		wipeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err := a.WipeData(wipeCtx)
		cancel()
		if err != nil {
			logger.Error("failed to wipe memory bank", "error", err)
			os.Exit(1)
		}
		logger.Warn("memory bank wiped")
	}

	sessionLog, err := api.NewSessionLog(cfg.SessionLogDir)
	if err != nil {
		logger.Error("failed to create session log", "error", err)
		os.Exit(1)
	}
	logger.Info("session started", "session_id", sessionLog.ID(), "log_file", sessionLog.Path())

	hub := api.NewHub(logger)
	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.New(a, sessionLog, hub).Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.LLMTimeout + 30*time.Second, // covers one narration
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return hub.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("listening", "url", "http://localhost:"+cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
