package narrator

import "github.com/raphaelgruber/brogue-dm/internal/models"

// ShouldEnhance reports whether an event deserves generated narration.
// Deaths and level changes always do; encounters only when new or rare;
// kills and discoveries only when rare.
func ShouldEnhance(eventType string, data map[string]any) bool {
	switch eventType {
	case models.EventPlayerDied, models.EventNewLevel:
		return true
	case models.EventMonsterEncountered:
		return models.IsTrue(data, "isFirstEncounter") || models.IsTrue(data, "isRare")
	case models.EventMonsterKilled, models.EventItemDiscovered:
		return models.IsTrue(data, "isRare")
	default:
		return false
	}
}
