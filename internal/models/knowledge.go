package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Category names a knowledge base.
type Category string

// Knowledge categories.
const (
	CategoryCreatures Category = "creatures"
	CategoryItems     Category = "items"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c == CategoryCreatures || c == CategoryItems
}

// ParseCategory accepts the plural category name or its singular form.
func ParseCategory(s string) (Category, error) {
	switch s {
	case "creatures", "creature":
		return CategoryCreatures, nil
	case "items", "item":
		return CategoryItems, nil
	default:
		return "", fmt.Errorf("unknown knowledge category: %q", s)
	}
}

// Reserved knowledge fields owned by Observe. Incoming event data never
// overwrites them.
const (
	FieldFirstSeen      = "firstSeen"
	FieldLastSeen       = "lastSeen"
	FieldEncounterCount = "encounterCount"
)

// KnowledgeRecord accumulates facts about one creature or item name.
type KnowledgeRecord struct {
	Category       Category
	Name           string
	FirstSeen      time.Time
	LastSeen       time.Time
	EncounterCount int
	Fields         map[string]any
}

// NewKnowledgeRecord starts an unobserved record for name.
func NewKnowledgeRecord(category Category, name string, now time.Time) *KnowledgeRecord {
	return &KnowledgeRecord{
		Category:  category,
		Name:      name,
		FirstSeen: now,
		Fields:    map[string]any{},
	}
}

// Observe merges one observation into the record: lastSeen moves to now,
// encounterCount grows by exactly one, incoming fields overwrite existing
// fields of the same name and all other fields are kept.
func (r *KnowledgeRecord) Observe(now time.Time, data map[string]any) {
	if r.Fields == nil {
		r.Fields = map[string]any{}
	}
	if r.FirstSeen.IsZero() {
		r.FirstSeen = now
	}
	r.LastSeen = now
	r.EncounterCount++

	for k, v := range data {
		switch k {
		case FieldFirstSeen, FieldLastSeen, FieldEncounterCount:
			continue
		}
		r.Fields[k] = v
	}
}

// Clone returns a copy that shares no mutable state with r.
func (r *KnowledgeRecord) Clone() *KnowledgeRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.Fields = CloneMap(r.Fields)
	return &c
}

// MarshalJSON flattens the record into a single object: merged event fields
// plus firstSeen, lastSeen (unix milliseconds) and encounterCount.
func (r KnowledgeRecord) MarshalJSON() ([]byte, error) {
	out := CloneMap(r.Fields)
	out[FieldFirstSeen] = r.FirstSeen.UnixMilli()
	out[FieldLastSeen] = r.LastSeen.UnixMilli()
	out[FieldEncounterCount] = r.EncounterCount
	return json.Marshal(out)
}

// UnmarshalJSON reverses MarshalJSON. Category and Name are not part of the
// document and must be set by the caller.
func (r *KnowledgeRecord) UnmarshalJSON(b []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	r.Fields = map[string]any{}
	for k, v := range raw {
		switch k {
		case FieldFirstSeen:
			r.FirstSeen = millisToTime(v)
		case FieldLastSeen:
			r.LastSeen = millisToTime(v)
		case FieldEncounterCount:
			if f, ok := v.(float64); ok {
				r.EncounterCount = int(f)
			}
		default:
			r.Fields[k] = v
		}
	}
	return nil
}

func millisToTime(v any) time.Time {
	f, ok := v.(float64)
	if !ok {
		return time.Time{}
	}
	return time.UnixMilli(int64(f))
}
