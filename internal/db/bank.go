package db

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/raphaelgruber/brogue-dm/internal/models"
	"github.com/raphaelgruber/brogue-dm/internal/store"
)

var _ store.Bank = (*Client)(nil)

type eventRow struct {
	ID        surrealmodels.RecordID `json:"id"`
	EventType string                 `json:"event_type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]any         `json:"data"`
	Context   map[string]any         `json:"context"`
}

type knowledgeRow struct {
	Name           string         `json:"name"`
	FirstSeen      time.Time      `json:"first_seen"`
	LastSeen       time.Time      `json:"last_seen"`
	EncounterCount int            `json:"encounter_count"`
	Fields         map[string]any `json:"fields"`
}

const upsertEventSQL = `
	UPSERT type::record("events", $key) CONTENT {
		event_type: $event_type,
		timestamp: $timestamp,
		data: $data,
		context: $context
	}
`

// PutEvent writes a significant event. Writing the same key again replaces
// the record.
func (c *Client) PutEvent(ctx context.Context, entry models.MemoryEntry) error {
	vars := map[string]any{
		"key":        entry.Key(),
		"event_type": entry.EventType,
		"timestamp":  entry.Timestamp.UTC(),
		"data":       nonNil(entry.EventData),
		"context":    nonNil(entry.Context),
	}
	err := writeWithRetry(ctx, func() error {
		_, err := surrealdb.Query[any](ctx, c.db, upsertEventSQL, vars)
		return err
	})
	if err != nil {
		return fmt.Errorf("put event: %w", err)
	}
	return nil
}

// defaultEventLimit applies when ListEvents is called without a limit.
const defaultEventLimit = 50

// ListEvents returns up to limit events, newest first.
func (c *Client) ListEvents(ctx context.Context, limit int) ([]models.MemoryEntry, error) {
	if limit <= 0 {
		limit = defaultEventLimit
	}

	results, err := surrealdb.Query[[]eventRow](ctx, c.db, `
		SELECT * FROM events ORDER BY timestamp DESC LIMIT $limit
	`, map[string]any{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", classify(err))
	}

	entries := []models.MemoryEntry{}
	if results == nil || len(*results) == 0 {
		return entries, nil
	}
	for _, row := range (*results)[0].Result {
		entries = append(entries, models.MemoryEntry{
			ID:        fmt.Sprint(row.ID.ID),
			Timestamp: row.Timestamp,
			EventType: row.EventType,
			EventData: nonNil(row.Data),
			Context:   nonNil(row.Context),
		})
	}
	return entries, nil
}

// GetKnowledge loads one record or returns store.ErrNotFound.
func (c *Client) GetKnowledge(ctx context.Context, category models.Category, name string) (*models.KnowledgeRecord, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("get knowledge: invalid category %q", category)
	}

	results, err := surrealdb.Query[[]knowledgeRow](ctx, c.db, `
		SELECT * FROM type::record($table, $name)
	`, map[string]any{"table": string(category), "name": name})
	if err != nil {
		return nil, fmt.Errorf("get knowledge: %w", classify(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, store.ErrNotFound
	}
	return rowToRecord(category, (*results)[0].Result[0]), nil
}

const upsertKnowledgeSQL = `
	UPSERT type::record($table, $name) CONTENT {
		name: $name,
		first_seen: $first_seen,
		last_seen: $last_seen,
		encounter_count: $encounter_count,
		fields: $fields
	}
`

// PutKnowledge writes the full record, replacing any previous version.
func (c *Client) PutKnowledge(ctx context.Context, rec *models.KnowledgeRecord) error {
	if !rec.Category.Valid() {
		return fmt.Errorf("put knowledge: invalid category %q", rec.Category)
	}

	vars := map[string]any{
		"table":           string(rec.Category),
		"name":            rec.Name,
		"first_seen":      rec.FirstSeen.UTC(),
		"last_seen":       rec.LastSeen.UTC(),
		"encounter_count": rec.EncounterCount,
		"fields":          nonNil(rec.Fields),
	}
	err := writeWithRetry(ctx, func() error {
		_, err := surrealdb.Query[any](ctx, c.db, upsertKnowledgeSQL, vars)
		return err
	})
	if err != nil {
		return fmt.Errorf("put knowledge: %w", err)
	}
	return nil
}

// ListKnowledge returns every record in a category ordered by name.
func (c *Client) ListKnowledge(ctx context.Context, category models.Category) ([]models.KnowledgeRecord, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("list knowledge: invalid category %q", category)
	}

	results, err := surrealdb.Query[[]knowledgeRow](ctx, c.db, `
		SELECT * FROM type::table($table) ORDER BY name
	`, map[string]any{"table": string(category)})
	if err != nil {
		return nil, fmt.Errorf("list knowledge: %w", classify(err))
	}

	records := []models.KnowledgeRecord{}
	if results == nil || len(*results) == 0 {
		return records, nil
	}
	for _, row := range (*results)[0].Result {
		records = append(records, *rowToRecord(category, row))
	}
	return records, nil
}

func rowToRecord(category models.Category, row knowledgeRow) *models.KnowledgeRecord {
	return &models.KnowledgeRecord{
		Category:       category,
		Name:           row.Name,
		FirstSeen:      row.FirstSeen,
		LastSeen:       row.LastSeen,
		EncounterCount: row.EncounterCount,
		Fields:         nonNil(row.Fields),
	}
}

func nonNil(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
