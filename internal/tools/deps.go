// Package tools exposes the Dungeon Master to MCP clients as tools.
package tools

import (
	"log/slog"

	"github.com/raphaelgruber/brogue-dm/internal/app"
	"github.com/raphaelgruber/brogue-dm/internal/memory"
	"github.com/raphaelgruber/brogue-dm/internal/metrics"
	"github.com/raphaelgruber/brogue-dm/internal/narrator"
	"github.com/raphaelgruber/brogue-dm/internal/settings"
)

// Dependencies are the narrator services the tool handlers close over.
// Settings and Metrics may be nil in tests that only exercise ping.
type Dependencies struct {
	Narrator *narrator.Service
	Memory   *memory.Store
	Settings *settings.Store
	Metrics  *metrics.Collector
	Logger   *slog.Logger
}

// NewDependencies shares a's services with the tool handlers, so MCP calls
// and the HTTP API see the same memory and personality.
func NewDependencies(a *app.App, logger *slog.Logger) *Dependencies {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dependencies{
		Narrator: a.Narrator,
		Memory:   a.Memory,
		Settings: a.Settings,
		Metrics:  a.Metrics,
		Logger:   logger.With("component", "tools"),
	}
}
