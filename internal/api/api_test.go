package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/brogue-dm/internal/app"
	"github.com/raphaelgruber/brogue-dm/internal/config"
	"github.com/raphaelgruber/brogue-dm/internal/llm/llmtest"
	"github.com/raphaelgruber/brogue-dm/internal/metrics"
	"github.com/raphaelgruber/brogue-dm/internal/models"
	"github.com/raphaelgruber/brogue-dm/internal/narrator"
)

// neverPhrase keeps signature phrases out of generated text.
type neverPhrase struct{}

func (neverPhrase) Intn(int) int      { return 0 }
func (neverPhrase) Float64() float64 { return 0.99 }

type testEnv struct {
	app    *app.App
	gen    *llmtest.Generator
	log    *SessionLog
	hub    *Hub
	server *httptest.Server
}

func newTestEnv(t *testing.T, text string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := config.Config{
		LLMProvider:    config.ProviderOllama,
		LLMTimeout:     time.Second,
		Storage:        config.StorageSQLite,
		MemoryBankPath: filepath.Join(dir, "bank"),
		ConfigDir:      filepath.Join(dir, "config"),
	}
	gen := &llmtest.Generator{Text: text}
	a, err := app.New(context.Background(), cfg, logger,
		app.WithGenerator(gen),
		app.WithNarratorOptions(narrator.WithRand(neverPhrase{})))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	sessionLog, err := NewSessionLog(filepath.Join(dir, "logs"))
	require.NoError(t, err)

	hub := NewHub(logger)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	srv := httptest.NewServer(New(a, sessionLog, hub).Handler())
	t.Cleanup(srv.Close)

	return &testEnv{app: a, gen: gen, log: sessionLog, hub: hub, server: srv}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.server.URL+path, r)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, "ok")

	for _, path := range []string{"/", "/health"} {
		t.Run(path, func(t *testing.T) {
			resp, data := env.do(t, http.MethodGet, path, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			h := decode[models.HealthResponse](t, data)
			assert.Equal(t, "ok", h.Status)
			assert.Equal(t, env.log.ID(), h.SessionID)
			assert.NotEmpty(t, h.Message)
		})
	}

	resp, _ := env.do(t, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPostEvent(t *testing.T) {
	tests := []struct {
		name          string
		event         models.Event
		wantNarrative bool
	}{
		{"player died is narrated", models.Event{Type: models.EventPlayerDied, Data: map[string]any{"killedBy": "goblin chieftain"}}, true},
		{"new level is narrated", models.Event{Type: models.EventNewLevel, Data: map[string]any{"depth": 3}}, true},
		{"first encounter is narrated", models.Event{Type: models.EventMonsterEncountered, Data: map[string]any{"monsterName": "rat", "isFirstEncounter": true}}, true},
		{"common kill is recorded only", models.Event{Type: models.EventMonsterKilled, Data: map[string]any{"monsterName": "rat"}}, false},
		{"unknown type is recorded only", models.Event{Type: "DOOR_OPENED"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, "The dungeon remembers.")

			resp, data := env.do(t, http.MethodPost, "/api/event", tt.event)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			got := decode[models.EventResponse](t, data)
			assert.Equal(t, "success", got.Status)

			if tt.wantNarrative {
				assert.Equal(t, "The dungeon remembers.", got.Narrative)
				assert.Empty(t, got.Message)
			} else {
				assert.Empty(t, got.Narrative)
				assert.Equal(t, "Event recorded", got.Message)
				assert.Empty(t, env.gen.Requests())
			}

			recent := env.app.Memory.RecentMemories(5)
			require.Len(t, recent, 1)
			assert.Equal(t, tt.event.Type, recent[0].EventType)
		})
	}
}

func TestPostEventValidation(t *testing.T) {
	env := newTestEnv(t, "x")

	resp, data := env.do(t, http.MethodPost, "/api/event", map[string]any{"eventData": map[string]any{}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	got := decode[models.ErrorResponse](t, data)
	assert.Equal(t, "error", got.Status)
	assert.Equal(t, "Missing eventType in request", got.Message)

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/api/event", strings.NewReader("{not json"))
	require.NoError(t, err)
	r, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	r.Body.Close()
	assert.Equal(t, http.StatusBadRequest, r.StatusCode)
}

func TestPostEventBackendDownUsesFallback(t *testing.T) {
	env := newTestEnv(t, "")

	resp, data := env.do(t, http.MethodPost, "/api/event", models.Event{
		Type:    models.EventPlayerDied,
		Data:    map[string]any{"killedBy": "goblin chieftain", "totalTurns": 235, "maxDepth": 1},
		Context: map[string]any{"playerLevel": 1},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[models.EventResponse](t, data)
	assert.Contains(t, got.Narrative, "goblin chieftain")
	assert.Equal(t, int64(1), env.app.Metrics.Snapshot().Fallbacks)
}

func TestSettingsEndpoints(t *testing.T) {
	env := newTestEnv(t, "x")

	resp, data := env.do(t, http.MethodGet, "/api/narrator/settings", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decode[models.SettingsResponse](t, data)
	assert.Equal(t, "gandalf", view.PresetName)
	assert.Equal(t, []string{"gandalf", "galadriel", "aragorn"}, view.AvailablePresets)
	assert.Equal(t, 6, view.Attributes["verbosity"])

	idx := 0
	tests := []struct {
		name       string
		req        models.SettingsRequest
		wantStatus int
		wantMsg    string
		wantPreset string
	}{
		{"apply builtin", models.SettingsRequest{Action: "applyPreset", PresetName: "galadriel"}, 200, "", "galadriel"},
		{"apply unknown", models.SettingsRequest{Action: "applyPreset", PresetName: "saruman"}, 400, "Failed to update settings", ""},
		{"apply without name", models.SettingsRequest{Action: "applyPreset"}, 400, "Failed to update settings", ""},
		{"set attribute number", models.SettingsRequest{Action: "setAttribute", AttributeName: "verbosity", AttributeValue: 15}, 200, "", "custom"},
		{"set attribute string", models.SettingsRequest{Action: "setAttribute", AttributeName: "humorStyle", AttributeValue: "2"}, 200, "", "custom"},
		{"set attribute bogus name", models.SettingsRequest{Action: "setAttribute", AttributeName: "bogus", AttributeValue: 5}, 400, "Failed to update settings", ""},
		{"set attribute bad value", models.SettingsRequest{Action: "setAttribute", AttributeName: "verbosity", AttributeValue: "loud"}, 400, "Failed to update settings", ""},
		{"save preset", models.SettingsRequest{Action: "savePreset", PresetName: "mine"}, 200, "", "mine"},
		{"save over builtin", models.SettingsRequest{Action: "savePreset", PresetName: "gandalf"}, 400, "Failed to update settings", ""},
		{"add phrase", models.SettingsRequest{Action: "addPhrase", Phrase: "Fly, you fools!"}, 200, "", "custom"},
		{"remove phrase", models.SettingsRequest{Action: "removePhrase", PhraseIndex: &idx}, 200, "", "custom"},
		{"remove phrase without index", models.SettingsRequest{Action: "removePhrase"}, 400, "Failed to update settings", ""},
		{"delete preset", models.SettingsRequest{Action: "deletePreset", PresetName: "mine"}, 200, "", "custom"},
		{"reset default", models.SettingsRequest{Action: "resetDefault"}, 200, "", "gandalf"},
		{"unknown action", models.SettingsRequest{Action: "dance"}, 400, "Unknown action", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := env.do(t, http.MethodPost, "/api/narrator/settings", tt.req)
			require.Equal(t, tt.wantStatus, resp.StatusCode, string(data))
			if tt.wantStatus != http.StatusOK {
				got := decode[models.ErrorResponse](t, data)
				assert.Equal(t, tt.wantMsg, got.Message)
				return
			}
			got := decode[models.SettingsResponse](t, data)
			assert.Equal(t, "success", got.Status)
			assert.Equal(t, "Narrator settings updated", got.Message)
			assert.Equal(t, tt.wantPreset, got.CurrentPreset)
		})
	}

	assert.Equal(t, "gandalf", env.app.Settings.CurrentPresetName())
}

func TestSetAttributeClamps(t *testing.T) {
	env := newTestEnv(t, "x")

	_, data := env.do(t, http.MethodPost, "/api/narrator/settings",
		models.SettingsRequest{Action: "setAttribute", AttributeName: "verbosity", AttributeValue: -3})
	got := decode[models.SettingsResponse](t, data)
	assert.Equal(t, 1, got.Attributes["verbosity"])
}

func TestPreview(t *testing.T) {
	env := newTestEnv(t, "x")

	resp, data := env.do(t, http.MethodGet, "/api/narrator/preview", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[models.PreviewResponse](t, data)
	assert.Equal(t, "gandalf", got.PresetName)
	assert.Equal(t, env.app.Settings.PreviewText(), got.Preview)
}

func TestMemoryAndKnowledgeEndpoints(t *testing.T) {
	env := newTestEnv(t, "x")
	ctx := context.Background()

	env.app.Narrator.HandleEvent(ctx, models.Event{Type: models.EventMonsterEncountered, Data: map[string]any{"monsterName": "goblin", "depth": 2}})
	env.app.Narrator.HandleEvent(ctx, models.Event{Type: models.EventMonsterKilled, Data: map[string]any{"monsterName": "goblin"}})
	env.app.Narrator.HandleEvent(ctx, models.Event{Type: models.EventItemDiscovered, Data: map[string]any{"itemName": "dagger"}})

	t.Run("recent", func(t *testing.T) {
		_, data := env.do(t, http.MethodGet, "/api/memory/recent?n=2", nil)
		got := decode[models.MemoriesResponse](t, data)
		require.Len(t, got.Memories, 2)
		assert.Equal(t, models.EventItemDiscovered, got.Memories[0].EventType)
	})

	t.Run("recent default", func(t *testing.T) {
		_, data := env.do(t, http.MethodGet, "/api/memory/recent", nil)
		got := decode[models.MemoriesResponse](t, data)
		assert.Len(t, got.Memories, 3)
	})

	t.Run("recent bad n", func(t *testing.T) {
		resp, _ := env.do(t, http.MethodGet, "/api/memory/recent?n=lots", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("history holds significant events", func(t *testing.T) {
		_, data := env.do(t, http.MethodGet, "/api/memory/history", nil)
		got := decode[models.MemoriesResponse](t, data)
		require.Len(t, got.Memories, 1)
		assert.Equal(t, models.EventMonsterEncountered, got.Memories[0].EventType)
	})

	t.Run("knowledge record", func(t *testing.T) {
		resp, data := env.do(t, http.MethodGet, "/api/knowledge/creatures/goblin", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var raw struct {
			Name   string         `json:"name"`
			Record map[string]any `json:"record"`
		}
		require.NoError(t, json.Unmarshal(data, &raw))
		assert.Equal(t, "goblin", raw.Name)
		assert.EqualValues(t, 2, raw.Record["encounterCount"])
		assert.EqualValues(t, 2, raw.Record["depth"])
	})

	t.Run("singular category", func(t *testing.T) {
		resp, _ := env.do(t, http.MethodGet, "/api/knowledge/item/dagger", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("unknown name", func(t *testing.T) {
		resp, _ := env.do(t, http.MethodGet, "/api/knowledge/creatures/dragon", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("unknown category", func(t *testing.T) {
		resp, _ := env.do(t, http.MethodGet, "/api/knowledge/spells/fireball", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("list", func(t *testing.T) {
		_, data := env.do(t, http.MethodGet, "/api/knowledge/creatures", nil)
		got := decode[models.KnowledgeListResponse](t, data)
		require.Contains(t, got.Records, "goblin")
		assert.Equal(t, 2, got.Records["goblin"].EncounterCount)
	})
}

func TestSessionLogEndpoint(t *testing.T) {
	env := newTestEnv(t, "A hush falls.")

	env.do(t, http.MethodPost, "/api/event", models.Event{Type: models.EventNewLevel, Data: map[string]any{"depth": 4, "environmentType": "cavern"}})
	env.do(t, http.MethodPost, "/api/narrator/settings", models.SettingsRequest{Action: "applyPreset", PresetName: "aragorn"})

	resp, data := env.do(t, http.MethodGet, "/api/logs/current", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/markdown")

	log := string(data)
	assert.True(t, strings.HasPrefix(log, "# Brogue DM Session "))
	assert.Contains(t, log, "Descended to depth 4, a cavern area")
	assert.Contains(t, log, "\"environmentType\": \"cavern\"")
	assert.Contains(t, log, "> *A hush falls.*")
	assert.Contains(t, log, "Applied narrator preset: aragorn")
}

func TestStats(t *testing.T) {
	env := newTestEnv(t, "Steel rings out.")

	env.do(t, http.MethodPost, "/api/event", models.Event{Type: models.EventNewLevel, Data: map[string]any{"depth": 1}})

	_, data := env.do(t, http.MethodGet, "/api/stats", nil)
	snap := decode[metrics.Snapshot](t, data)
	assert.Equal(t, int64(1), snap.Events)
	assert.Equal(t, int64(1), snap.Narrations)
	require.NotNil(t, snap.Generate)
	assert.Equal(t, int64(1), snap.Generate.Count)
}

func TestNarrationFeed(t *testing.T) {
	env := newTestEnv(t, "The stairs groan beneath you.")

	wsURL := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws/narrations"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return env.hub.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)

	env.do(t, http.MethodPost, "/api/event", models.Event{Type: models.EventMonsterKilled, Data: map[string]any{"monsterName": "rat"}})
	env.do(t, http.MethodPost, "/api/event", models.Event{Type: models.EventNewLevel, Data: map[string]any{"depth": 2}})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var n models.Narration
	require.NoError(t, conn.ReadJSON(&n))
	assert.Equal(t, models.EventNewLevel, n.EventType)
	assert.Equal(t, "The stairs groan beneath you.", n.Narrative)
	assert.False(t, n.Timestamp.IsZero())
}

func TestHubDisconnect(t *testing.T) {
	env := newTestEnv(t, "x")

	wsURL := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws/narrations"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return env.hub.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return env.hub.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
}
