package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// DefaultOllamaModel is used when no model is configured.
const DefaultOllamaModel = "llama3"

// OllamaGenerator calls Ollama's non-streaming /api/generate endpoint.
type OllamaGenerator struct {
	client *api.Client
	model  string
}

var _ Generator = (*OllamaGenerator)(nil)

// NewOllamaGenerator creates a generator for the server at baseURL. A nil
// httpClient uses http.DefaultClient; timeouts come from the caller's ctx.
func NewOllamaGenerator(baseURL, model string, httpClient *http.Client) (*OllamaGenerator, error) {
	if model == "" {
		model = DefaultOllamaModel
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse ollama url %q: %w", baseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid ollama url %q", baseURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &OllamaGenerator{
		client: api.NewClient(base, httpClient),
		model:  model,
	}, nil
}

// Model returns the configured model name.
func (g *OllamaGenerator) Model() string {
	return g.model
}

// Generate sends one completion request and returns the response text.
func (g *OllamaGenerator) Generate(ctx context.Context, req Request) (Response, error) {
	stream := false
	options := map[string]any{}
	if req.Temperature > 0 {
		options["temperature"] = req.Temperature
	}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}

	genReq := &api.GenerateRequest{
		Model:   g.model,
		Prompt:  req.Prompt,
		System:  systemWithContext(req.System, req.Context),
		Stream:  &stream,
		Options: options,
	}

	slog.Debug("ollama generate", "model", g.model, "prompt_len", len(req.Prompt), "temperature", req.Temperature, "max_tokens", req.MaxTokens)

	var text strings.Builder
	var in, out int64
	start := time.Now()
	err := g.client.Generate(ctx, genReq, func(r api.GenerateResponse) error {
		text.WriteString(r.Response)
		if r.Done {
			in = int64(r.PromptEvalCount)
			out = int64(r.EvalCount)
		}
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Response{}, fmt.Errorf("%w: %w", ErrBackend, ctxErr)
		}
		var statusErr api.StatusError
		if errors.As(err, &statusErr) {
			return Response{}, fmt.Errorf("%w: status %d: %w", ErrBackend, statusErr.StatusCode, wrapFatalError(err))
		}
		return Response{}, fmt.Errorf("%w: %w", ErrBackend, err)
	}

	result := strings.TrimSpace(text.String())
	if result == "" {
		return Response{}, ErrEmptyResponse
	}

	slog.Debug("ollama generate complete", "model", g.model, "duration_ms", time.Since(start).Milliseconds(), "response_len", len(result))
	return Response{Text: result, InputTokens: in, OutputTokens: out}, nil
}
