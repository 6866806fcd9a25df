package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/brogue-dm/internal/config"
	"github.com/raphaelgruber/brogue-dm/internal/llm/llmtest"
	"github.com/raphaelgruber/brogue-dm/internal/models"
	"github.com/raphaelgruber/brogue-dm/internal/settings"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	return config.Config{
		LLMProvider:    config.ProviderOllama,
		LLMModel:       "llama3",
		OllamaHost:     "http://127.0.0.1:1",
		LLMTimeout:     config.DefaultLLMTimeout,
		Storage:        config.StorageSQLite,
		MemoryBankPath: filepath.Join(dir, "bank"),
		ConfigDir:      filepath.Join(dir, "config"),
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewWiresNarrator(t *testing.T) {
	cfg := testConfig(t)
	gen := &llmtest.Generator{Text: "A shadow stirs."}

	a, err := New(context.Background(), cfg, quietLogger(), WithGenerator(gen))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	assert.FileExists(t, filepath.Join(cfg.ConfigDir, settings.FileName))
	assert.Equal(t, "gandalf", a.Settings.CurrentPresetName())

	res := a.Narrator.HandleEvent(context.Background(), models.Event{
		Type: models.EventNewLevel,
		Data: map[string]any{"depth": 2},
	})
	assert.True(t, res.Enhanced)
	assert.Contains(t, res.Narrative, "A shadow stirs.")

	history, err := a.Memory.History(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.EventNewLevel, history[0].EventType)

	require.NoError(t, a.WipeData(context.Background()))
	history, err = a.Memory.History(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestNewDefaultOllamaGenerator(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	assert.Equal(t, "llama3", a.Generator.Model())
}

func TestNewFallbacksFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.FallbacksFile = filepath.Join(t.TempDir(), "fallbacks.yaml")
	require.NoError(t, os.WriteFile(cfg.FallbacksFile, []byte("NEW_LEVEL:\n  - \"Depth {depth} waits.\"\n"), 0o644))

	gen := &llmtest.Generator{Text: ""}
	a, err := New(context.Background(), cfg, quietLogger(), WithGenerator(gen))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	text := a.Narrator.GenerateResponse(context.Background(), models.EventNewLevel, map[string]any{"depth": 4}, nil)
	assert.Equal(t, "Depth 4 waits.", text)
}

func TestNewMissingFallbacksFileUsesDefaults(t *testing.T) {
	cfg := testConfig(t)
	cfg.FallbacksFile = filepath.Join(t.TempDir(), "missing.yaml")

	a, err := New(context.Background(), cfg, quietLogger(), WithGenerator(&llmtest.Generator{}))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	text := a.Narrator.GenerateResponse(context.Background(), "SOMETHING_ELSE", nil, nil)
	assert.NotEmpty(t, text)
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown storage", func(c *config.Config) { c.Storage = "mongo" }},
		{"unknown provider", func(c *config.Config) { c.LLMProvider = "mystery" }},
		{"bad ollama url", func(c *config.Config) { c.OllamaHost = "not a url" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(&cfg)
			_, err := New(context.Background(), cfg, quietLogger())
			assert.Error(t, err)
		})
	}
}
