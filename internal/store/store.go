// Package store defines the memory bank interface and its SQLite implementation.
package store

import (
	"context"
	"errors"

	"github.com/raphaelgruber/brogue-dm/internal/models"
)

// ErrNotFound indicates the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Bank is the durable side of the memory store: significant events keyed by
// (timestamp, type) and creature/item knowledge keyed by name.
type Bank interface {
	// PutEvent persists a significant event. Writing the same key twice
	// replaces the earlier record.
	PutEvent(ctx context.Context, entry models.MemoryEntry) error

	// ListEvents returns up to limit persisted events, newest first.
	ListEvents(ctx context.Context, limit int) ([]models.MemoryEntry, error)

	// GetKnowledge loads a knowledge record. Returns ErrNotFound when absent.
	GetKnowledge(ctx context.Context, category models.Category, name string) (*models.KnowledgeRecord, error)

	// PutKnowledge writes a knowledge record, replacing any previous version.
	PutKnowledge(ctx context.Context, rec *models.KnowledgeRecord) error

	// ListKnowledge returns every record in a category ordered by name.
	ListKnowledge(ctx context.Context, category models.Category) ([]models.KnowledgeRecord, error)

	// Close releases the underlying connection.
	Close() error
}
