// Package narrator turns game events into narration: it builds prompts from
// the live personality and recent memories, calls the generation backend
// under a timeout and falls back to templates when the backend fails.
package narrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/raphaelgruber/brogue-dm/internal/llm"
	"github.com/raphaelgruber/brogue-dm/internal/memory"
	"github.com/raphaelgruber/brogue-dm/internal/metrics"
	"github.com/raphaelgruber/brogue-dm/internal/models"
	"github.com/raphaelgruber/brogue-dm/internal/personality"
)

// Tuning constants.
const (
	DefaultTimeout      = 10 * time.Second
	PhraseProbability   = 0.1
	ContextMemoryWindow = 3
)

// ErrTimeout is reported when the backend does not answer in time.
var ErrTimeout = errors.New("generation timed out")

// PersonalitySource hands out a copy of the live personality.
type PersonalitySource interface {
	Personality() *personality.Personality
}

// Result is the outcome of handling one event.
type Result struct {
	Entry     models.MemoryEntry `json:"-"`
	Narrative string             `json:"narrative,omitempty"`
	Enhanced  bool               `json:"enhanced"`
}

// Service orchestrates narration for incoming events.
type Service struct {
	gen       llm.Generator
	memory    *memory.Store
	settings  PersonalitySource
	fallbacks *Fallbacks
	rng       Rand
	timeout   time.Duration
	metrics   *metrics.Collector
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithTimeout bounds each backend call.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithRand replaces the random source.
func WithRand(r Rand) Option {
	return func(s *Service) { s.rng = r }
}

// WithFallbacks replaces the fallback template pools.
func WithFallbacks(f *Fallbacks) Option {
	return func(s *Service) { s.fallbacks = f }
}

// WithMetrics records generation stats on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Service) { s.metrics = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New creates a Service. A nil generator makes every narration a fallback.
func New(gen llm.Generator, mem *memory.Store, settings PersonalitySource, opts ...Option) *Service {
	s := &Service{
		gen:       gen,
		memory:    mem,
		settings:  settings,
		fallbacks: DefaultFallbacks(),
		rng:       NewRand(NewSeed()),
		timeout:   DefaultTimeout,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleEvent records the event and, when the enhancement policy allows,
// generates narration for it.
func (s *Service) HandleEvent(ctx context.Context, ev models.Event) Result {
	s.inc(metrics.CountEvents)
	var entry models.MemoryEntry
	if s.memory != nil {
		entry = s.memory.RecordEvent(ctx, ev.Type, ev.Data, ev.Context)
	}

	if !ShouldEnhance(ev.Type, ev.Data) {
		s.logger.Debug("event recorded without narration", "event_type", ev.Type)
		return Result{Entry: entry}
	}

	return Result{
		Entry:     entry,
		Narrative: s.GenerateResponse(ctx, ev.Type, ev.Data, ev.Context),
		Enhanced:  true,
	}
}

// GenerateResponse always returns narration for the event. Backend failures,
// timeouts, empty answers and panics while building the request all resolve
// to fallback text.
func (s *Service) GenerateResponse(ctx context.Context, eventType string, data, evCtx map[string]any) (text string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("narration panicked, using fallback", "event_type", eventType, "panic", r)
			text = s.fallback(eventType, data)
		}
	}()

	if !models.IsKnownEventType(eventType) || s.gen == nil {
		return s.fallback(eventType, data)
	}

	p := s.personality()
	req := s.buildRequest(p, eventType, data, evCtx)

	start := time.Now()
	resp, err := s.call(ctx, req)
	duration := time.Since(start)
	if err != nil {
		if errors.Is(err, ErrTimeout) {
			s.inc(metrics.CountTimeouts)
		}
		s.logger.Warn("narration backend failed, using fallback",
			"event_type", eventType, "model", s.gen.Model(), "duration_ms", duration.Milliseconds(), "error", err)
		return s.fallback(eventType, data)
	}

	if s.metrics != nil {
		s.metrics.RecordLLMUsage(metrics.OpGenerate, duration, resp.InputTokens, resp.OutputTokens)
	}
	s.inc(metrics.CountNarrations)

	out := s.postProcess(resp.Text, p)
	s.logger.Info("generated narrative", "event_type", eventType, "duration_ms", duration.Milliseconds(), "narrative", out)
	return out
}

// BuildRequest assembles the backend request for an event using the live
// personality. Exposed for previews and tests.
func (s *Service) BuildRequest(eventType string, data, evCtx map[string]any) llm.Request {
	return s.buildRequest(s.personality(), eventType, data, evCtx)
}

func (s *Service) buildRequest(p *personality.Personality, eventType string, data, evCtx map[string]any) llm.Request {
	base := BuildPrompt(p, s.rng, eventType, data, evCtx)

	var recent []models.MemoryEntry
	if s.memory != nil {
		recent = s.memory.RecentMemories(ContextMemoryWindow)
	}

	return llm.Request{
		Prompt:      p.EnhancePrompt(base, eventType),
		System:      SystemPrompt(p, eventType),
		Temperature: Temperature(p),
		MaxTokens:   MaxTokens(p),
		Context:     MemoryContext(recent),
	}
}

// call runs one backend request. The generator gets a context carrying the
// deadline; if it does not return by then the call is abandoned.
func (s *Service) call(ctx context.Context, req llm.Request) (llm.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type result struct {
		resp llm.Response
		err  error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("generator panicked: %v", r)}
			}
		}()
		resp, err := s.gen.Generate(ctx, req)
		done <- result{resp: resp, err: err}
	}()

	select {
	case r := <-done:
		if r.err == nil && strings.TrimSpace(r.resp.Text) == "" {
			return llm.Response{}, llm.ErrEmptyResponse
		}
		if r.err != nil && errors.Is(r.err, context.DeadlineExceeded) {
			return llm.Response{}, fmt.Errorf("%w after %s: %w", ErrTimeout, s.timeout, r.err)
		}
		return r.resp, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return llm.Response{}, fmt.Errorf("%w after %s", ErrTimeout, s.timeout)
		}
		return llm.Response{}, ctx.Err()
	}
}

// postProcess occasionally appends one signature phrase not already present.
func (s *Service) postProcess(text string, p *personality.Personality) string {
	phrases := p.SignaturePhrases()
	if len(phrases) == 0 || s.rng.Float64() >= PhraseProbability {
		return text
	}
	phrase := phrases[s.rng.Intn(len(phrases))]
	if strings.Contains(text, phrase) {
		return text
	}
	return text + " " + phrase
}

func (s *Service) fallback(eventType string, data map[string]any) string {
	s.inc(metrics.CountFallbacks)
	text := s.fallbacks.Pick(s.rng, eventType, data)
	s.logger.Info("using fallback narrative", "event_type", eventType, "narrative", text)
	return text
}

func (s *Service) personality() *personality.Personality {
	if s.settings == nil {
		p := personality.New()
		p.ApplyPreset(personality.DefaultPreset)
		return p
	}
	return s.settings.Personality()
}

func (s *Service) inc(name string) {
	if s.metrics != nil {
		s.metrics.Inc(name)
	}
}
