package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/bedrock"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/raphaelgruber/brogue-dm/internal/config"
)

// ChatGenerator wraps a langchaingo chat model.
type ChatGenerator struct {
	llm       llms.Model
	modelName string
}

var _ Generator = (*ChatGenerator)(nil)

// NewChatGenerator creates a chat-model generator based on configuration.
func NewChatGenerator(ctx context.Context, cfg config.Config) (*ChatGenerator, error) {
	var model llms.Model
	var err error

	switch cfg.LLMProvider {
	case config.ProviderLangchainOllama:
		model, err = ollama.New(
			ollama.WithModel(cfg.LLMModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		model, err = openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		model, err = anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	case config.ProviderBedrock:
		awsCfg, awsErr := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if awsErr != nil {
			return nil, fmt.Errorf("load aws config: %w", awsErr)
		}
		model, err = bedrock.New(
			bedrock.WithClient(bedrockruntime.NewFromConfig(awsCfg)),
			bedrock.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create bedrock model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}

	return NewChatGeneratorFromModel(model, cfg.LLMModel), nil
}

// NewChatGeneratorFromModel wraps an existing langchaingo model.
func NewChatGeneratorFromModel(model llms.Model, name string) *ChatGenerator {
	return &ChatGenerator{llm: model, modelName: name}
}

// Model returns the LLM model name.
func (g *ChatGenerator) Model() string {
	return g.modelName
}

// Generate sends the system instructions and prompt as a two-message chat.
func (g *ChatGenerator) Generate(ctx context.Context, req Request) (Response, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemWithContext(req.System, req.Context)),
		llms.TextParts(llms.ChatMessageTypeHuman, req.Prompt),
	}

	var opts []llms.CallOption
	if req.Temperature > 0 {
		opts = append(opts, llms.WithTemperature(req.Temperature))
	}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}

	response, err := g.llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		slog.Warn("chat generation failed", "model", g.modelName, "error", err)
		return Response{}, fmt.Errorf("%w: %w", ErrBackend, wrapFatalError(err))
	}

	if len(response.Choices) == 0 {
		return Response{}, ErrEmptyResponse
	}

	choice := response.Choices[0]
	text := strings.TrimSpace(choice.Content)
	if text == "" {
		return Response{}, ErrEmptyResponse
	}

	in, out := tokenUsage(choice.GenerationInfo)
	return Response{Text: text, InputTokens: in, OutputTokens: out}, nil
}

// tokenUsage reads provider-specific usage keys from generation info.
func tokenUsage(info map[string]any) (int64, int64) {
	return firstInt(info, "PromptTokens", "InputTokens", "input_tokens"),
		firstInt(info, "CompletionTokens", "OutputTokens", "output_tokens")
}

func firstInt(info map[string]any, keys ...string) int64 {
	for _, k := range keys {
		switch v := info[k].(type) {
		case int:
			return int64(v)
		case int32:
			return int64(v)
		case int64:
			return v
		case float64:
			return int64(v)
		}
	}
	return 0
}
