package narrator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/raphaelgruber/brogue-dm/internal/llm"
	"github.com/raphaelgruber/brogue-dm/internal/memory"
	"github.com/raphaelgruber/brogue-dm/internal/metrics"
	"github.com/raphaelgruber/brogue-dm/internal/models"
	"github.com/raphaelgruber/brogue-dm/internal/personality"
)

// fixedRand replays scripted values, cycling when exhausted.
type fixedRand struct {
	mu     sync.Mutex
	ints   []int
	floats []float64
	i, f   int
}

func (r *fixedRand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[r.i%len(r.ints)]
	r.i++
	return v % n
}

func (r *fixedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.floats) == 0 {
		return 0.99
	}
	v := r.floats[r.f%len(r.floats)]
	r.f++
	return v
}

type staticPersonality struct {
	p *personality.Personality
}

func (s staticPersonality) Personality() *personality.Personality {
	return s.p.Clone()
}

func gandalf() *personality.Personality {
	p := personality.New()
	p.ApplyPreset("gandalf")
	return p
}

// fakeGenerator answers with a fixed response or error and records requests.
type fakeGenerator struct {
	mu       sync.Mutex
	text     string
	err      error
	block    bool
	panicMsg string
	calls    atomic.Int32
	last     llm.Request
}

func (g *fakeGenerator) Generate(ctx context.Context, req llm.Request) (llm.Response, error) {
	g.calls.Add(1)
	g.mu.Lock()
	g.last = req
	g.mu.Unlock()

	if g.panicMsg != "" {
		panic(g.panicMsg)
	}
	if g.block {
		<-ctx.Done()
		return llm.Response{}, ctx.Err()
	}
	if g.err != nil {
		return llm.Response{}, g.err
	}
	return llm.Response{Text: g.text, InputTokens: 10, OutputTokens: 5}, nil
}

func (g *fakeGenerator) Model() string { return "fake" }

func (g *fakeGenerator) lastRequest() llm.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(gen llm.Generator, p *personality.Personality, rng Rand, opts ...Option) (*Service, *memory.Store) {
	mem := memory.New(nil, memory.WithLogger(quietLogger()))
	opts = append([]Option{WithRand(rng), WithLogger(quietLogger())}, opts...)
	return New(gen, mem, staticPersonality{p: p}, opts...), mem
}

func playerDied() (map[string]any, map[string]any) {
	return map[string]any{"killedBy": "goblin chieftain", "totalTurns": 235, "maxDepth": 1},
		map[string]any{"playerLevel": 1}
}

func TestGenerateResponseSuccess(t *testing.T) {
	gen := &fakeGenerator{text: "The goblin chieftain's blade finds its mark."}
	svc, mem := newTestService(gen, gandalf(), &fixedRand{floats: []float64{0.5}})
	ctx := context.Background()

	mem.RecordEvent(ctx, models.EventNewLevel, map[string]any{"depth": 1}, nil)
	data, evCtx := playerDied()

	out := svc.GenerateResponse(ctx, models.EventPlayerDied, data, evCtx)
	assert.Equal(t, "The goblin chieftain's blade finds its mark.", out)

	req := gen.lastRequest()
	assert.Equal(t, "Player (level 1) died after 235 turns, reaching dungeon depth 1. They were killed by goblin chieftain."+
		" Offer a philosophical perspective on death and the journey.", req.Prompt)
	assert.True(t, strings.HasPrefix(req.System, systemPrompts[models.EventPlayerDied]+"\n\n"))
	assert.Contains(t, req.System, "- Wisdom: ancient and deeply knowledgeable\n")
	assert.InDelta(t, 0.77, req.Temperature, 1e-9)
	assert.Equal(t, 140, req.MaxTokens)
	assert.Equal(t, `Recent events: NEW_LEVEL: {"depth":1}`, req.Context)
}

func TestGenerateResponseNoMemoriesMeansNoContext(t *testing.T) {
	gen := &fakeGenerator{text: "ok"}
	svc, _ := newTestService(gen, personality.New(), &fixedRand{})

	svc.GenerateResponse(context.Background(), models.EventNewLevel, map[string]any{"depth": 3}, nil)
	assert.Empty(t, gen.lastRequest().Context)
}

func TestGenerateResponseContextWindow(t *testing.T) {
	gen := &fakeGenerator{text: "ok"}
	svc, mem := newTestService(gen, personality.New(), &fixedRand{})
	ctx := context.Background()

	for depth := 1; depth <= 5; depth++ {
		mem.RecordEvent(ctx, models.EventNewLevel, map[string]any{"depth": depth}, nil)
	}
	svc.GenerateResponse(ctx, models.EventNewLevel, map[string]any{"depth": 6}, nil)

	assert.Equal(t, `Recent events: NEW_LEVEL: {"depth":5}. NEW_LEVEL: {"depth":4}. NEW_LEVEL: {"depth":3}`, gen.lastRequest().Context)
}

func TestSignaturePhraseInjection(t *testing.T) {
	phrase := "All we have to decide is what to do with the time that is given us."

	tests := []struct {
		name string
		text string
		rng  *fixedRand
		want string
	}{
		{"injected", "You fall.", &fixedRand{floats: []float64{0.05}, ints: []int{0}}, "You fall. " + phrase},
		{"probability boundary", "You fall.", &fixedRand{floats: []float64{0.1}, ints: []int{0}}, "You fall."},
		{"not drawn", "You fall.", &fixedRand{floats: []float64{0.7}, ints: []int{0}}, "You fall."},
		{"already present", "You fall. " + phrase, &fixedRand{floats: []float64{0.01}, ints: []int{0}}, "You fall. " + phrase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(&fakeGenerator{text: tt.text}, gandalf(), tt.rng)
			out := svc.GenerateResponse(context.Background(), models.EventPlayerDied, map[string]any{"killedBy": "rat"}, nil)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestNoPhrasesNoInjection(t *testing.T) {
	svc, _ := newTestService(&fakeGenerator{text: "Quiet."}, personality.New(), &fixedRand{floats: []float64{0}})
	assert.Equal(t, "Quiet.", svc.GenerateResponse(context.Background(), models.EventNewLevel, nil, nil))
}

func TestPlayerDiedBackendUnreachable(t *testing.T) {
	data, evCtx := playerDied()
	gen := &fakeGenerator{err: errors.New("dial tcp 127.0.0.1:11434: connect: connection refused")}

	t.Run("template pool", func(t *testing.T) {
		svc, _ := newTestService(gen, gandalf(), &fixedRand{ints: []int{1}})
		out := svc.GenerateResponse(context.Background(), models.EventPlayerDied, data, evCtx)

		assert.Contains(t, out, "goblin chieftain")
		assert.NotContains(t, out, "{killedBy}")

		var fromPool bool
		for _, tmpl := range DefaultFallbacks().Pool(models.EventPlayerDied) {
			if FillTemplate(tmpl, data) == out {
				fromPool = true
			}
		}
		assert.True(t, fromPool, out)
	})

	t.Run("no templates", func(t *testing.T) {
		svc, _ := newTestService(gen, gandalf(), &fixedRand{}, WithFallbacks(NewFallbacks(nil)))
		out := svc.GenerateResponse(context.Background(), models.EventPlayerDied, data, evCtx)
		assert.Equal(t, "Your journey ends here, but the dungeon awaits your return...", out)
	})
}

func TestRepeatedTimeoutsAlwaysFallBack(t *testing.T) {
	defer goleak.VerifyNone(t)

	gen := &fakeGenerator{block: true}
	col := metrics.NewCollector()
	svc, _ := newTestService(gen, gandalf(), NewRand(7), WithTimeout(30*time.Millisecond), WithMetrics(col))
	data, evCtx := playerDied()

	for i := 0; i < 2; i++ {
		start := time.Now()
		out := svc.GenerateResponse(context.Background(), models.EventPlayerDied, data, evCtx)
		assert.NotEmpty(t, out)
		assert.Less(t, time.Since(start), 2*time.Second)
	}

	assert.Equal(t, int32(2), gen.calls.Load())
	snap := col.Snapshot()
	assert.Equal(t, int64(2), snap.Timeouts)
	assert.Equal(t, int64(2), snap.Fallbacks)
	assert.Nil(t, snap.Generate)
}

// stubbornGenerator ignores cancellation until released.
type stubbornGenerator struct {
	release chan struct{}
}

func (g *stubbornGenerator) Generate(context.Context, llm.Request) (llm.Response, error) {
	<-g.release
	return llm.Response{Text: "too late"}, nil
}

func (g *stubbornGenerator) Model() string { return "stubborn" }

func TestTimeoutAbandonsStubbornBackend(t *testing.T) {
	defer goleak.VerifyNone(t)

	gen := &stubbornGenerator{release: make(chan struct{})}
	svc, _ := newTestService(gen, personality.New(), &fixedRand{}, WithTimeout(20*time.Millisecond), WithFallbacks(NewFallbacks(nil)))

	out := svc.GenerateResponse(context.Background(), models.EventNewLevel, map[string]any{"depth": 2}, nil)
	assert.Equal(t, "You enter a new level of the dungeon, the air feels different here.", out)

	// The abandoned call finishes on its own; its result is discarded.
	close(gen.release)
}

func TestGenerateResponseFailureModes(t *testing.T) {
	tests := []struct {
		name string
		gen  *fakeGenerator
	}{
		{"empty text", &fakeGenerator{text: "   "}},
		{"empty response error", &fakeGenerator{err: llm.ErrEmptyResponse}},
		{"backend error", &fakeGenerator{err: llm.ErrBackend}},
		{"panic", &fakeGenerator{panicMsg: "boom"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(tt.gen, gandalf(), &fixedRand{}, WithFallbacks(NewFallbacks(nil)))
			out := svc.GenerateResponse(context.Background(), models.EventMonsterKilled, map[string]any{"monsterName": "rat"}, nil)
			assert.Equal(t, "The creature falls before you, its essence returning to the dungeon depths.", out)
		})
	}
}

func TestUnknownEventTypeUsesGenericFallback(t *testing.T) {
	gen := &fakeGenerator{text: "should not be used"}
	svc, _ := newTestService(gen, gandalf(), &fixedRand{})

	out := svc.GenerateResponse(context.Background(), "DOOR_OPENED", map[string]any{"door": "oak"}, nil)
	assert.Equal(t, GenericFallback, out)
	assert.Zero(t, gen.calls.Load())
}

func TestNilGeneratorFallsBack(t *testing.T) {
	svc, _ := newTestService(nil, gandalf(), &fixedRand{}, WithFallbacks(NewFallbacks(nil)))
	out := svc.GenerateResponse(context.Background(), models.EventItemDiscovered, map[string]any{"itemName": "ring"}, nil)
	assert.Equal(t, "You find an interesting item amidst the dungeon debris.", out)
}

func TestCanceledCallerContextFallsBack(t *testing.T) {
	defer goleak.VerifyNone(t)

	svc, _ := newTestService(&fakeGenerator{block: true}, gandalf(), &fixedRand{}, WithFallbacks(NewFallbacks(nil)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := svc.GenerateResponse(ctx, models.EventNewLevel, map[string]any{"depth": 4}, nil)
	assert.Equal(t, CannedFallback(models.EventNewLevel), out)
}

func TestHandleEvent(t *testing.T) {
	gen := &fakeGenerator{text: "A rare beast!"}
	col := metrics.NewCollector()
	svc, mem := newTestService(gen, personality.New(), &fixedRand{}, WithMetrics(col))
	ctx := context.Background()

	res := svc.HandleEvent(ctx, models.Event{Type: models.EventMonsterKilled, Data: map[string]any{"monsterName": "rat"}})
	assert.False(t, res.Enhanced)
	assert.Empty(t, res.Narrative)
	assert.Zero(t, gen.calls.Load())

	res = svc.HandleEvent(ctx, models.Event{
		Type:    models.EventMonsterEncountered,
		Data:    map[string]any{"monsterName": "ogre", "isRare": true},
		Context: map[string]any{"playerLevel": 4},
	})
	assert.True(t, res.Enhanced)
	assert.Equal(t, "A rare beast!", res.Narrative)
	assert.Equal(t, models.EventMonsterEncountered, res.Entry.EventType)

	recent := mem.RecentMemories(10)
	require.Len(t, recent, 2)
	assert.Equal(t, models.EventMonsterEncountered, recent[0].EventType)

	snap := col.Snapshot()
	assert.Equal(t, int64(2), snap.Events)
	assert.Equal(t, int64(1), snap.Narrations)
	require.NotNil(t, snap.Generate)
	assert.Equal(t, int64(1), snap.Generate.Count)
}

func TestBuildRequestUsesLivePersonality(t *testing.T) {
	p := personality.New()
	p.SetAttribute(personality.Verbosity, 10)
	p.SetAttribute(personality.Temperament, 10)
	svc, _ := newTestService(&fakeGenerator{}, p, &fixedRand{})

	req := svc.BuildRequest(models.EventItemDiscovered, map[string]any{"itemName": "amulet"}, nil)
	assert.Equal(t, "Player discovers a amulet.", req.Prompt)
	assert.Equal(t, 180, req.MaxTokens)
	assert.InDelta(t, 0.9, req.Temperature, 1e-9)
	assert.Contains(t, req.System, "Keep it to 2-3 sentences maximum.")
}
