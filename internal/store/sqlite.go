package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/raphaelgruber/brogue-dm/internal/models"
)

// DBFileName is the SQLite file created inside the memory bank directory.
const DBFileName = "memory.db"

// SQLiteBank implements Bank using SQLite.
type SQLiteBank struct {
	db *sql.DB

	mu      sync.Mutex
	entropy *rand.Rand
}

var _ Bank = (*SQLiteBank)(nil)

// NewSQLiteBank opens or creates the memory bank database inside dir.
func NewSQLiteBank(dir string) (*SQLiteBank, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create memory bank dir: %w", err)
	}

	dbPath := filepath.Join(dir, DBFileName)
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer keeps read-after-write ordering trivial.
	db.SetMaxOpenConns(1)

	b := &SQLiteBank{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := b.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return b, nil
}

func (b *SQLiteBank) newID(ts time.Time) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(ts), b.entropy).String()
}

func (b *SQLiteBank) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		ts          INTEGER NOT NULL,
		event_type  TEXT NOT NULL,
		id          TEXT NOT NULL,
		data        TEXT NOT NULL,
		context     TEXT NOT NULL,
		PRIMARY KEY (ts, event_type)
	);
	CREATE INDEX IF NOT EXISTS idx_events_ts ON events(ts DESC);

	CREATE TABLE IF NOT EXISTS knowledge (
		category        TEXT NOT NULL,
		name            TEXT NOT NULL,
		first_seen      INTEGER NOT NULL,
		last_seen       INTEGER NOT NULL,
		encounter_count INTEGER NOT NULL DEFAULT 0,
		fields          TEXT NOT NULL,
		PRIMARY KEY (category, name)
	);
	`
	_, err := b.db.Exec(schema)
	return err
}

// PutEvent stores a significant event under (timestamp, type).
func (b *SQLiteBank) PutEvent(ctx context.Context, entry models.MemoryEntry) error {
	data, err := json.Marshal(nonNil(entry.EventData))
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}
	evCtx, err := json.Marshal(nonNil(entry.Context))
	if err != nil {
		return fmt.Errorf("marshal event context: %w", err)
	}

	id := entry.ID
	if id == "" {
		id = b.newID(entry.Timestamp)
	}

	_, err = b.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO events (ts, event_type, id, data, context) VALUES (?, ?, ?, ?, ?)`,
		entry.Timestamp.UnixMilli(), entry.EventType, id, string(data), string(evCtx))
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// ListEvents returns persisted events, newest first.
func (b *SQLiteBank) ListEvents(ctx context.Context, limit int) ([]models.MemoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := b.db.QueryContext(ctx,
		`SELECT id, ts, event_type, data, context FROM events ORDER BY ts DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []models.MemoryEntry
	for rows.Next() {
		var (
			e           models.MemoryEntry
			ts          int64
			data, evCtx string
		)
		if err := rows.Scan(&e.ID, &ts, &e.EventType, &data, &evCtx); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Timestamp = time.UnixMilli(ts)
		if err := json.Unmarshal([]byte(data), &e.EventData); err != nil {
			return nil, fmt.Errorf("decode event data: %w", err)
		}
		if err := json.Unmarshal([]byte(evCtx), &e.Context); err != nil {
			return nil, fmt.Errorf("decode event context: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetKnowledge loads one record or returns ErrNotFound.
func (b *SQLiteBank) GetKnowledge(ctx context.Context, category models.Category, name string) (*models.KnowledgeRecord, error) {
	row := b.db.QueryRowContext(ctx,
		`SELECT first_seen, last_seen, encounter_count, fields FROM knowledge WHERE category = ? AND name = ?`,
		string(category), name)

	rec, err := scanKnowledge(row, category, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get knowledge: %w", err)
	}
	return rec, nil
}

// PutKnowledge upserts a record.
func (b *SQLiteBank) PutKnowledge(ctx context.Context, rec *models.KnowledgeRecord) error {
	fields, err := json.Marshal(nonNil(rec.Fields))
	if err != nil {
		return fmt.Errorf("marshal knowledge fields: %w", err)
	}

	_, err = b.db.ExecContext(ctx, `
		INSERT INTO knowledge (category, name, first_seen, last_seen, encounter_count, fields)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(category, name) DO UPDATE SET
			first_seen = excluded.first_seen,
			last_seen = excluded.last_seen,
			encounter_count = excluded.encounter_count,
			fields = excluded.fields`,
		string(rec.Category), rec.Name, rec.FirstSeen.UnixMilli(), rec.LastSeen.UnixMilli(),
		rec.EncounterCount, string(fields))
	if err != nil {
		return fmt.Errorf("upsert knowledge: %w", err)
	}
	return nil
}

// ListKnowledge returns all records of a category ordered by name.
func (b *SQLiteBank) ListKnowledge(ctx context.Context, category models.Category) ([]models.KnowledgeRecord, error) {
	rows, err := b.db.QueryContext(ctx,
		`SELECT name, first_seen, last_seen, encounter_count, fields FROM knowledge WHERE category = ? ORDER BY name`,
		string(category))
	if err != nil {
		return nil, fmt.Errorf("list knowledge: %w", err)
	}
	defer rows.Close()

	var out []models.KnowledgeRecord
	for rows.Next() {
		var name string
		var first, last int64
		var count int
		var fields string
		if err := rows.Scan(&name, &first, &last, &count, &fields); err != nil {
			return nil, fmt.Errorf("scan knowledge: %w", err)
		}
		rec, err := buildKnowledge(category, name, first, last, count, fields)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// WipeData deletes all events and knowledge. Use for testing only.
func (b *SQLiteBank) WipeData(ctx context.Context) error {
	for _, table := range []string{"events", "knowledge"} {
		if _, err := b.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}
	return nil
}

// Close closes the database.
func (b *SQLiteBank) Close() error {
	return b.db.Close()
}

func scanKnowledge(row *sql.Row, category models.Category, name string) (*models.KnowledgeRecord, error) {
	var first, last int64
	var count int
	var fields string
	if err := row.Scan(&first, &last, &count, &fields); err != nil {
		return nil, err
	}
	return buildKnowledge(category, name, first, last, count, fields)
}

func buildKnowledge(category models.Category, name string, first, last int64, count int, fields string) (*models.KnowledgeRecord, error) {
	rec := &models.KnowledgeRecord{
		Category:       category,
		Name:           name,
		FirstSeen:      time.UnixMilli(first),
		LastSeen:       time.UnixMilli(last),
		EncounterCount: count,
	}
	if err := json.Unmarshal([]byte(fields), &rec.Fields); err != nil {
		return nil, fmt.Errorf("decode knowledge fields: %w", err)
	}
	if rec.Fields == nil {
		rec.Fields = map[string]any{}
	}
	return rec, nil
}

func nonNil(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
