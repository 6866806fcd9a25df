// Package memory records game events into a bounded short-term memory, persists
// significant ones to the memory bank and maintains creature/item knowledge.
package memory

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/raphaelgruber/brogue-dm/internal/metrics"
	"github.com/raphaelgruber/brogue-dm/internal/models"
	"github.com/raphaelgruber/brogue-dm/internal/store"
)

// ShortTermCapacity is the maximum number of entries kept in short-term memory.
const ShortTermCapacity = 20

// Store is the event-to-memory pipeline. All methods are safe for concurrent
// use; mutations are serialized.
type Store struct {
	bank    store.Bank
	logger  *slog.Logger
	metrics *metrics.Collector
	now     func() time.Time

	mu        sync.Mutex
	shortTerm []models.MemoryEntry // most recent first
	knowledge map[models.Category]map[string]*models.KnowledgeRecord
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for persistence failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithMetrics records persistence timings on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Store) { s.metrics = c }
}

// New creates a Store. A nil bank keeps everything in memory.
func New(bank store.Bank, opts ...Option) *Store {
	s := &Store{
		bank:      bank,
		logger:    slog.Default(),
		now:       time.Now,
		shortTerm: make([]models.MemoryEntry, 0, ShortTermCapacity+1),
		knowledge: map[models.Category]map[string]*models.KnowledgeRecord{
			models.CategoryCreatures: {},
			models.CategoryItems:     {},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsSignificant reports whether an event deserves durable storage.
func IsSignificant(eventType string, data map[string]any) bool {
	switch eventType {
	case models.EventPlayerDied, models.EventNewLevel, models.EventMonsterEncountered:
		return true
	case models.EventMonsterKilled, models.EventItemDiscovered:
		return models.IsTrue(data, "isRare")
	default:
		return false
	}
}

// RecordEvent adds an event to short-term memory, persists it when
// significant and updates the creature or item knowledge base. Durable
// failures are logged; the in-memory update always happens.
func (s *Store) RecordEvent(ctx context.Context, eventType string, data, evCtx map[string]any) models.MemoryEntry {
	entry := models.MemoryEntry{
		Timestamp: s.now(),
		EventType: eventType,
		EventData: models.CloneMap(data),
		Context:   models.CloneMap(evCtx),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.shortTerm = append(s.shortTerm, models.MemoryEntry{})
	copy(s.shortTerm[1:], s.shortTerm)
	s.shortTerm[0] = entry
	if len(s.shortTerm) > ShortTermCapacity {
		s.shortTerm = s.shortTerm[:ShortTermCapacity]
	}

	if IsSignificant(eventType, data) {
		s.persistEvent(ctx, entry)
	}

	switch eventType {
	case models.EventMonsterEncountered, models.EventMonsterKilled:
		if name := models.StringOr(data, "monsterName", ""); name != "" {
			s.upsertLocked(ctx, models.CategoryCreatures, name, data)
		}
	case models.EventItemDiscovered:
		if name := models.StringOr(data, "itemName", ""); name != "" {
			s.upsertLocked(ctx, models.CategoryItems, name, data)
		}
	}

	s.logger.Debug("recorded event", "event_type", eventType, "short_term", len(s.shortTerm))
	return entry
}

// UpsertKnowledge merges data into the record for (category, name) and
// returns a copy of the updated record.
func (s *Store) UpsertKnowledge(ctx context.Context, category models.Category, name string, data map[string]any) *models.KnowledgeRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsertLocked(ctx, category, name, data).Clone()
}

// RecentMemories returns up to n entries, most recent first.
func (s *Store) RecentMemories(n int) []models.MemoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n > len(s.shortTerm) {
		n = len(s.shortTerm)
	}
	if n <= 0 {
		return []models.MemoryEntry{}
	}
	out := make([]models.MemoryEntry, n)
	copy(out, s.shortTerm[:n])
	return out
}

// Knowledge looks up a record. The boolean is false when nothing is known
// about the name; lookup failures are logged and reported the same way.
func (s *Store) Knowledge(ctx context.Context, category models.Category, name string) (*models.KnowledgeRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.loadLocked(ctx, category, name)
	if rec == nil {
		return nil, false
	}
	return rec.Clone(), true
}

// DefaultHistoryLimit applies when History is called without a positive limit.
const DefaultHistoryLimit = 50

// History returns up to limit persisted significant events, newest first.
// Without a bank it returns the significant entries still in short-term
// memory.
func (s *Store) History(ctx context.Context, limit int) ([]models.MemoryEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if s.bank != nil {
		return s.bank.ListEvents(ctx, limit)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.MemoryEntry{}
	for _, e := range s.shortTerm {
		if len(out) >= limit {
			break
		}
		if IsSignificant(e.EventType, e.EventData) {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListKnowledge returns every known record in category ordered by name.
func (s *Store) ListKnowledge(ctx context.Context, category models.Category) ([]models.KnowledgeRecord, error) {
	if s.bank != nil {
		return s.bank.ListKnowledge(ctx, category)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.cache(category)))
	for name := range s.cache(category) {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]models.KnowledgeRecord, 0, len(names))
	for _, name := range names {
		out = append(out, *s.cache(category)[name].Clone())
	}
	return out, nil
}

func (s *Store) upsertLocked(ctx context.Context, category models.Category, name string, data map[string]any) *models.KnowledgeRecord {
	now := s.now()
	rec := s.loadLocked(ctx, category, name)
	if rec == nil {
		rec = models.NewKnowledgeRecord(category, name, now)
		s.cache(category)[name] = rec
	}
	rec.Observe(now, data)

	if s.bank != nil {
		start := time.Now()
		err := s.bank.PutKnowledge(ctx, rec)
		s.recordTiming(time.Since(start))
		if err != nil {
			s.logger.Error("failed to update knowledge", "category", category, "name", name, "error", err)
		}
	}
	return rec
}

// loadLocked reads the record from the bank so observations written by
// another process sharing the bank are merged, not overwritten. The cache is
// written through and serves when there is no bank, when the bank read
// fails, or when an earlier bank write was lost.
func (s *Store) loadLocked(ctx context.Context, category models.Category, name string) *models.KnowledgeRecord {
	cached := s.cache(category)[name]
	if s.bank == nil {
		return cached
	}

	rec, err := s.bank.GetKnowledge(ctx, category, name)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Error("failed to load knowledge", "category", category, "name", name, "error", err)
		}
		return cached
	}
	s.cache(category)[name] = rec
	return rec
}

func (s *Store) cache(category models.Category) map[string]*models.KnowledgeRecord {
	m, ok := s.knowledge[category]
	if !ok {
		m = map[string]*models.KnowledgeRecord{}
		s.knowledge[category] = m
	}
	return m
}

func (s *Store) persistEvent(ctx context.Context, entry models.MemoryEntry) {
	if s.bank == nil {
		return
	}
	start := time.Now()
	err := s.bank.PutEvent(ctx, entry)
	s.recordTiming(time.Since(start))
	if err != nil {
		s.logger.Error("failed to store event in long-term memory", "key", entry.Key(), "error", err)
		return
	}
	s.logger.Debug("stored event in long-term memory", "key", entry.Key())
}

func (s *Store) recordTiming(d time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordTiming(metrics.OpPersist, d)
	}
}
