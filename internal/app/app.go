// Package app wires the narrator's components from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/raphaelgruber/brogue-dm/internal/config"
	"github.com/raphaelgruber/brogue-dm/internal/db"
	"github.com/raphaelgruber/brogue-dm/internal/llm"
	"github.com/raphaelgruber/brogue-dm/internal/memory"
	"github.com/raphaelgruber/brogue-dm/internal/metrics"
	"github.com/raphaelgruber/brogue-dm/internal/narrator"
	"github.com/raphaelgruber/brogue-dm/internal/settings"
	"github.com/raphaelgruber/brogue-dm/internal/store"
)

// App holds the assembled dependencies shared by the HTTP and MCP servers.
type App struct {
	Config    config.Config
	Logger    *slog.Logger
	Metrics   *metrics.Collector
	Bank      store.Bank
	Memory    *memory.Store
	Settings  *settings.Store
	Generator llm.Generator
	Narrator  *narrator.Service
}

// Option customizes New, mostly for tests.
type Option func(*options)

type options struct {
	bank      store.Bank
	generator llm.Generator
	narrator  []narrator.Option
}

// WithBank uses bank instead of opening the configured storage driver.
func WithBank(bank store.Bank) Option {
	return func(o *options) { o.bank = bank }
}

// WithGenerator uses gen instead of the configured provider.
func WithGenerator(gen llm.Generator) Option {
	return func(o *options) { o.generator = gen }
}

// WithNarratorOptions passes extra options to the narration service.
func WithNarratorOptions(opts ...narrator.Option) Option {
	return func(o *options) { o.narrator = append(o.narrator, opts...) }
}

// New opens storage, creates the generation backend and assembles the
// narrator. Storage and backend errors are fatal; settings and fallback
// template problems are logged and defaults are used.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	mc := metrics.NewCollector()

	bank := o.bank
	if bank == nil {
		var err error
		bank, err = OpenBank(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
	}

	gen := o.generator
	if gen == nil {
		var err error
		gen, err = llm.New(ctx, cfg)
		if err != nil {
			_ = bank.Close()
			return nil, fmt.Errorf("create generator: %w", err)
		}
	}

	mem := memory.New(bank, memory.WithLogger(logger), memory.WithMetrics(mc))
	st := settings.New(cfg.ConfigDir, logger)

	narratorOpts := []narrator.Option{
		narrator.WithTimeout(cfg.LLMTimeout),
		narrator.WithMetrics(mc),
		narrator.WithLogger(logger),
	}
	if cfg.FallbacksFile != "" {
		fb, err := narrator.LoadFallbacks(cfg.FallbacksFile)
		if err != nil {
			logger.Warn("failed to load fallback templates, using built-in pools", "path", cfg.FallbacksFile, "error", err)
		} else {
			narratorOpts = append(narratorOpts, narrator.WithFallbacks(fb))
		}
	}
	narratorOpts = append(narratorOpts, o.narrator...)

	logger.Info("narrator ready",
		"provider", cfg.LLMProvider,
		"model", gen.Model(),
		"storage", cfg.Storage,
		"preset", st.CurrentPresetName(),
	)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Metrics:   mc,
		Bank:      bank,
		Memory:    mem,
		Settings:  st,
		Generator: gen,
		Narrator:  narrator.New(gen, mem, st, narratorOpts...),
	}, nil
}

// OpenBank opens the storage driver named by cfg.Storage.
func OpenBank(ctx context.Context, cfg config.Config, logger *slog.Logger) (store.Bank, error) {
	switch cfg.Storage {
	case config.StorageSQLite, "":
		bank, err := store.NewSQLiteBank(cfg.MemoryBankPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite memory bank: %w", err)
		}
		logger.Info("memory bank opened", "driver", config.StorageSQLite, "path", cfg.MemoryBankPath)
		return bank, nil

	case config.StorageSurrealDB:
		client, err := db.NewClient(ctx, db.Config{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
			AuthLevel: cfg.SurrealDBAuthLevel,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("connect surrealdb: %w", err)
		}
		if err := client.InitSchema(ctx); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("init surrealdb schema: %w", err)
		}
		return client, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Storage)
	}
}

// ErrWipeUnsupported is returned when the storage driver cannot be wiped.
var ErrWipeUnsupported = errors.New("storage driver does not support wiping")

// WipeData deletes all durable memory. Use for testing only.
func (a *App) WipeData(ctx context.Context) error {
	w, ok := a.Bank.(interface {
		WipeData(ctx context.Context) error
	})
	if !ok {
		return ErrWipeUnsupported
	}
	return w.WipeData(ctx)
}

// Close releases the storage connection.
func (a *App) Close() error {
	if a.Bank != nil {
		return a.Bank.Close()
	}
	return nil
}
