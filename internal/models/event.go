// Package models defines the data structures shared by the Dungeon Master narrator.
package models

import "time"

// Event types emitted by the game engine hooks.
const (
	EventMonsterEncountered = "MONSTER_ENCOUNTERED"
	EventMonsterKilled      = "MONSTER_KILLED"
	EventItemDiscovered     = "ITEM_DISCOVERED"
	EventPlayerDied         = "PLAYER_DIED"
	EventNewLevel           = "NEW_LEVEL"
)

// KnownEventTypes lists the recognized event types in a stable order.
var KnownEventTypes = []string{
	EventMonsterEncountered,
	EventMonsterKilled,
	EventItemDiscovered,
	EventPlayerDied,
	EventNewLevel,
}

// IsKnownEventType reports whether t is one of the recognized event types.
func IsKnownEventType(t string) bool {
	for _, k := range KnownEventTypes {
		if k == t {
			return true
		}
	}
	return false
}

// Event is an inbound gameplay event as delivered by the transport layer.
type Event struct {
	Type    string         `json:"eventType"`
	Data    map[string]any `json:"eventData,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

// MemoryEntry is a recorded event held in short-term memory and, when
// significant, persisted to the memory bank.
type MemoryEntry struct {
	ID        string         `json:"id,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	EventType string         `json:"eventType"`
	EventData map[string]any `json:"eventData"`
	Context   map[string]any `json:"context"`
}

// Key returns the durable key of the entry: millisecond timestamp and type.
func (e MemoryEntry) Key() string {
	return FormatEventKey(e.Timestamp, e.EventType)
}

// FormatEventKey builds the durable key for an event record.
func FormatEventKey(ts time.Time, eventType string) string {
	return FormatValue(ts.UnixMilli()) + "_" + eventType
}
