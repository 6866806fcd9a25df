package cli

import (
	"fmt"
	"strings"

	"github.com/raphaelgruber/brogue-dm/internal/models"
)

// Adventure is a scripted sequence of game events replayed by playtest.
type Adventure struct {
	Name   string
	Events []models.Event
}

func ev(eventType string, data, ctx map[string]any) models.Event {
	return models.Event{Type: eventType, Data: data, Context: ctx}
}

// Adventures are the built-in playtest scripts.
var Adventures = []Adventure{
	{
		Name: "The Goblin Caves",
		Events: []models.Event{
			ev(models.EventNewLevel,
				map[string]any{"depth": 1, "direction": 1, "environmentType": "cave"},
				map[string]any{"playerLevel": 1, "playerClass": "warrior", "playerRace": "human"}),
			ev(models.EventMonsterEncountered,
				map[string]any{"monsterName": "goblin scout", "monsterLevel": 1, "isRare": false, "isFirstEncounter": true, "locationDesc": "narrow passage"},
				map[string]any{"playerLevel": 1}),
			ev(models.EventMonsterKilled,
				map[string]any{"monsterName": "goblin scout", "monsterLevel": 1, "killedBy": "player", "isRare": false},
				map[string]any{"playerLevel": 1}),
			ev(models.EventItemDiscovered,
				map[string]any{"itemName": "Dagger of Slaying", "category": 1, "isRare": true},
				map[string]any{"playerLevel": 1}),
			ev(models.EventMonsterEncountered,
				map[string]any{"monsterName": "goblin chieftain", "monsterLevel": 3, "isRare": true, "isFirstEncounter": true, "locationDesc": "throne room"},
				map[string]any{"playerLevel": 1}),
			ev(models.EventPlayerDied,
				map[string]any{"killedBy": "goblin chieftain", "totalTurns": 235, "maxDepth": 1},
				map[string]any{"playerLevel": 1, "gold": 25}),
		},
	},
	{
		Name: "The Dragon's Lair",
		Events: []models.Event{
			ev(models.EventNewLevel,
				map[string]any{"depth": 3, "direction": 1, "environmentType": "crystal cavern"},
				map[string]any{"playerLevel": 3, "playerClass": "mage", "playerRace": "elf"}),
			ev(models.EventMonsterEncountered,
				map[string]any{"monsterName": "crystal elemental", "monsterLevel": 4, "isRare": true, "isFirstEncounter": true, "locationDesc": "glowing chamber"},
				map[string]any{"playerLevel": 3}),
			ev(models.EventItemDiscovered,
				map[string]any{"itemName": "Staff of Lightning", "category": 2, "isRare": true},
				map[string]any{"playerLevel": 3}),
			ev(models.EventMonsterKilled,
				map[string]any{"monsterName": "crystal elemental", "monsterLevel": 4, "killedBy": "player", "isRare": true},
				map[string]any{"playerLevel": 3}),
			ev(models.EventNewLevel,
				map[string]any{"depth": 4, "direction": 1, "environmentType": "cavern"},
				map[string]any{"playerLevel": 3}),
			ev(models.EventMonsterEncountered,
				map[string]any{"monsterName": "vampire bat", "monsterLevel": 4, "isRare": false, "isFirstEncounter": true, "locationDesc": "dark corridor"},
				map[string]any{"playerLevel": 3}),
			ev(models.EventMonsterKilled,
				map[string]any{"monsterName": "vampire bat", "monsterLevel": 4, "killedBy": "player", "isRare": false},
				map[string]any{"playerLevel": 4}),
			ev(models.EventMonsterEncountered,
				map[string]any{"monsterName": "dragon", "monsterLevel": 10, "isRare": true, "isFirstEncounter": true, "locationDesc": "treasure chamber"},
				map[string]any{"playerLevel": 8}),
			ev(models.EventPlayerDied,
				map[string]any{"killedBy": "dragon", "totalTurns": 3456, "maxDepth": 12},
				map[string]any{"playerLevel": 8, "gold": 780}),
		},
	},
	{
		Name: "The Undead Catacombs",
		Events: []models.Event{
			ev(models.EventNewLevel,
				map[string]any{"depth": 5, "direction": 1, "environmentType": "catacombs"},
				map[string]any{"playerLevel": 6, "playerClass": "paladin", "playerRace": "human"}),
			ev(models.EventMonsterEncountered,
				map[string]any{"monsterName": "skeletal warrior", "monsterLevel": 5, "isRare": false, "isFirstEncounter": true, "locationDesc": "bone-littered hall"},
				map[string]any{"playerLevel": 6}),
			ev(models.EventMonsterKilled,
				map[string]any{"monsterName": "skeletal warrior", "monsterLevel": 5, "killedBy": "player", "isRare": false},
				map[string]any{"playerLevel": 6}),
			ev(models.EventItemDiscovered,
				map[string]any{"itemName": "Holy Avenger", "category": 1, "isRare": true},
				map[string]any{"playerLevel": 6}),
			ev(models.EventMonsterEncountered,
				map[string]any{"monsterName": "lich king", "monsterLevel": 12, "isRare": true, "isFirstEncounter": true, "locationDesc": "ancient throne room"},
				map[string]any{"playerLevel": 6}),
			ev(models.EventMonsterKilled,
				map[string]any{"monsterName": "lich king", "monsterLevel": 12, "killedBy": "player", "isRare": true},
				map[string]any{"playerLevel": 7}),
			ev(models.EventItemDiscovered,
				map[string]any{"itemName": "Crown of Souls", "category": 3, "isRare": true},
				map[string]any{"playerLevel": 7}),
		},
	},
}

// FindAdventure looks up a built-in adventure by name, ignoring case and a
// leading "The".
func FindAdventure(name string) (Adventure, error) {
	want := normalizeAdventureName(name)
	for _, a := range Adventures {
		if normalizeAdventureName(a.Name) == want {
			return a, nil
		}
	}
	names := make([]string, len(Adventures))
	for i, a := range Adventures {
		names[i] = a.Name
	}
	return Adventure{}, fmt.Errorf("unknown adventure %q (available: %s)", name, strings.Join(names, ", "))
}

func normalizeAdventureName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.TrimPrefix(s, "the ")
}
