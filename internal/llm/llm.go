// Package llm provides the text-generation backends used by the narrator:
// the native Ollama generate endpoint and chat models through langchaingo.
package llm

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/brogue-dm/internal/config"
)

// Request is one single-shot completion request.
type Request struct {
	Prompt      string
	System      string
	Temperature float64
	MaxTokens   int
	// Context is optional secondary context, such as a summary of recent
	// events. Backends fold it into the system instructions.
	Context string
}

// Response is the backend's completion.
type Response struct {
	Text         string
	InputTokens  int64
	OutputTokens int64
}

// Generator produces text for a request. Implementations must honor ctx
// cancellation and return ErrEmptyResponse when the backend answers without
// text.
type Generator interface {
	Generate(ctx context.Context, req Request) (Response, error)
	Model() string
}

// New creates the generator selected by cfg.LLMProvider.
func New(ctx context.Context, cfg config.Config) (Generator, error) {
	switch cfg.LLMProvider {
	case config.ProviderOllama, "":
		return NewOllamaGenerator(cfg.OllamaHost, cfg.LLMModel, nil)
	case config.ProviderLangchainOllama, config.ProviderOpenAI, config.ProviderAnthropic, config.ProviderBedrock:
		return NewChatGenerator(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}
}

// systemWithContext appends secondary context to the system instructions.
func systemWithContext(system, secondary string) string {
	if secondary == "" {
		return system
	}
	if system == "" {
		return secondary
	}
	return system + "\n\n" + secondary
}
