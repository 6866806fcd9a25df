package narrator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/raphaelgruber/brogue-dm/internal/models"
	"github.com/raphaelgruber/brogue-dm/internal/personality"
)

// unknownField fills template fields that have no documented default.
const unknownField = "unknown"

var (
	environments   = []string{"cavern", "cave", "grotto", "ravine", "chasm", "hollow"}
	natureElements = []string{"moss", "fungi", "crystals", "roots", "stalagmites", "underground streams"}
)

// BuildPrompt renders the base prompt for an event and adds the
// personality-driven embellishments.
func BuildPrompt(p *personality.Personality, rng Rand, eventType string, data, evCtx map[string]any) string {
	prompt := basePrompt(eventType, data, evCtx)

	if p.High(personality.CosmicAwareness) {
		switch {
		case eventType == models.EventMonsterEncountered && models.Truthy(data["isRare"]):
			prompt += " The creature has an aura of ancient power about it."
		case eventType == models.EventNewLevel:
			prompt += " There is a sense of destiny or purpose to this place."
		}
	}

	if p.High(personality.NatureReferences) && eventType == models.EventNewLevel {
		prompt += fmt.Sprintf(" The %s contains natural %s features and %s.",
			models.StringOr(data, "environmentType", "dungeon"),
			environments[rng.Intn(len(environments))],
			natureElements[rng.Intn(len(natureElements))],
		)
	}

	return prompt
}

func basePrompt(eventType string, data, evCtx map[string]any) string {
	switch eventType {
	case models.EventMonsterEncountered:
		seen := "They've encountered this type of creature before."
		if models.Truthy(data["isFirstEncounter"]) {
			seen = "This is their first time seeing this creature."
		}
		return fmt.Sprintf("Player (level %s) encounters a %s in a %s. %s",
			models.StringOr(evCtx, "playerLevel", "?"),
			models.StringOr(data, "monsterName", unknownField),
			models.StringOr(data, "locationDesc", "dark chamber"),
			seen,
		)

	case models.EventItemDiscovered:
		return withRareClause(
			fmt.Sprintf("Player discovers a %s.", models.StringOr(data, "itemName", unknownField)),
			data, "This is a rare item.",
		)

	case models.EventPlayerDied:
		return fmt.Sprintf("Player (level %s) died after %s turns, reaching dungeon depth %s. They were killed by %s.",
			models.StringOr(evCtx, "playerLevel", "?"),
			models.StringOr(data, "totalTurns", "many"),
			models.StringOr(data, "maxDepth", "?"),
			models.StringOr(data, "killedBy", unknownField),
		)

	case models.EventNewLevel:
		return fmt.Sprintf("Player has descended to dungeon depth %s. This is a %s environment.",
			models.StringOr(data, "depth", unknownField),
			models.StringOr(data, "environmentType", "dungeon"),
		)

	case models.EventMonsterKilled:
		return withRareClause(
			fmt.Sprintf("Player has killed a %s.", models.StringOr(data, "monsterName", unknownField)),
			data, "This was a rare creature.",
		)

	default:
		return fmt.Sprintf("Player has experienced a %s event.", eventType)
	}
}

func withRareClause(sentence string, data map[string]any, clause string) string {
	if models.Truthy(data["isRare"]) {
		return sentence + " " + clause
	}
	return sentence
}

// MemoryContext summarizes recent memories for the backend, or returns ""
// when there are none.
func MemoryContext(entries []models.MemoryEntry) string {
	if len(entries) == 0 {
		return ""
	}
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		data, err := json.Marshal(e.EventData)
		if err != nil {
			data = []byte("{}")
		}
		parts = append(parts, e.EventType+": "+string(data))
	}
	return "Recent events: " + strings.Join(parts, ". ")
}
