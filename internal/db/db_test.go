//go:build integration

package db

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/raphaelgruber/brogue-dm/internal/models"
	"github.com/raphaelgruber/brogue-dm/internal/store"
)

var testDB *Client
var testContainer testcontainers.Container

// TestMain starts one SurrealDB container for the whole package.
func TestMain(m *testing.M) {
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")

	ctx := context.Background()

	var err error
	testContainer, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "surrealdb/surrealdb:v3.0.0-beta.1",
			ExposedPorts: []string{"8000/tcp"},
			Cmd:          []string{"start", "--log", "info", "--user", "root", "--pass", "root"},
			WaitingFor:   wait.ForLog("Started web server").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("Failed to start SurrealDB container: %v", err)
	}

	host, err := testContainer.Host(ctx)
	if err != nil {
		log.Fatalf("Failed to get container host: %v", err)
	}
	if host == "" || host == "null" {
		host = "localhost"
	}
	mappedPort, err := testContainer.MappedPort(ctx, "8000")
	if err != nil {
		log.Fatalf("Failed to get mapped port: %v", err)
	}

	testDB, err = NewClient(ctx, Config{
		URL:       fmt.Sprintf("ws://%s:%s/rpc", host, mappedPort.Port()),
		Namespace: "test",
		Database:  "test",
		Username:  "root",
		Password:  "root",
		AuthLevel: "root",
	}, nil)
	if err != nil {
		log.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := testDB.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	code := m.Run()

	_ = testDB.Close()
	_ = testContainer.Terminate(ctx)
	os.Exit(code)
}

func wipe(t *testing.T) {
	t.Helper()
	require.NoError(t, testDB.WipeData(context.Background()))
}

func TestEvents(t *testing.T) {
	wipe(t)
	ctx := context.Background()
	base := time.UnixMilli(1_700_000_000_000).UTC()

	for i, typ := range []string{models.EventMonsterKilled, models.EventItemDiscovered, models.EventPlayerDied} {
		err := testDB.PutEvent(ctx, models.MemoryEntry{
			Timestamp: base.Add(time.Duration(i) * time.Second),
			EventType: typ,
			EventData: map[string]any{"depth": i + 1},
			Context:   map[string]any{"turn": i},
		})
		require.NoError(t, err)
	}

	entries, err := testDB.ListEvents(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.EventPlayerDied, entries[0].EventType)
	assert.Equal(t, models.EventItemDiscovered, entries[1].EventType)
	assert.EqualValues(t, 3, entries[0].EventData["depth"])

	all, err := testDB.ListEvents(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestEventOverwrite(t *testing.T) {
	wipe(t)
	ctx := context.Background()
	ts := time.UnixMilli(1_700_000_000_000).UTC()

	require.NoError(t, testDB.PutEvent(ctx, models.MemoryEntry{Timestamp: ts, EventType: models.EventNewLevel, EventData: map[string]any{"depth": 2}}))
	require.NoError(t, testDB.PutEvent(ctx, models.MemoryEntry{Timestamp: ts, EventType: models.EventNewLevel, EventData: map[string]any{"depth": 3}}))

	entries, err := testDB.ListEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.EqualValues(t, 3, entries[0].EventData["depth"])
}

func TestKnowledge(t *testing.T) {
	wipe(t)
	ctx := context.Background()
	now := time.UnixMilli(1_700_000_000_000).UTC()

	_, err := testDB.GetKnowledge(ctx, models.CategoryCreatures, "goblin")
	assert.ErrorIs(t, err, store.ErrNotFound)

	rec := models.NewKnowledgeRecord(models.CategoryCreatures, "goblin", now)
	rec.Observe(now, map[string]any{"monsterName": "goblin", "depth": 3})
	require.NoError(t, testDB.PutKnowledge(ctx, rec))

	rec.Observe(now.Add(time.Minute), map[string]any{"monsterName": "goblin", "killed": true})
	require.NoError(t, testDB.PutKnowledge(ctx, rec))

	got, err := testDB.GetKnowledge(ctx, models.CategoryCreatures, "goblin")
	require.NoError(t, err)
	assert.Equal(t, 2, got.EncounterCount)
	assert.Equal(t, true, got.Fields["killed"])
	assert.EqualValues(t, 3, got.Fields["depth"])
	assert.True(t, got.LastSeen.After(got.FirstSeen))

	require.NoError(t, testDB.PutKnowledge(ctx, models.NewKnowledgeRecord(models.CategoryCreatures, "eel", now)))
	list, err := testDB.ListKnowledge(ctx, models.CategoryCreatures)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "eel", list[0].Name)
	assert.Equal(t, "goblin", list[1].Name)

	items, err := testDB.ListKnowledge(ctx, models.CategoryItems)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestInvalidCategory(t *testing.T) {
	ctx := context.Background()
	_, err := testDB.GetKnowledge(ctx, models.Category("spells"), "x")
	assert.Error(t, err)
	assert.Error(t, testDB.PutKnowledge(ctx, &models.KnowledgeRecord{Category: "spells", Name: "x"}))
	_, err = testDB.ListKnowledge(ctx, "spells")
	assert.Error(t, err)
}
