package narrator

import (
	"math"
	"strings"

	"github.com/raphaelgruber/brogue-dm/internal/models"
	"github.com/raphaelgruber/brogue-dm/internal/personality"
)

const genericSystemPrompt = "You are the Dungeon Master AI for a roguelike game called Brogue. Generate a brief, atmospheric response."

var systemPrompts = map[string]string{
	models.EventMonsterEncountered: "You are the Dungeon Master AI for a roguelike game called Brogue.\n" +
		"Generate a brief (1-2 sentences), atmospheric description of the monster encounter.\n" +
		"Focus on creating tension and immersion. Don't be verbose.",
	models.EventItemDiscovered: "You are the Dungeon Master AI for a roguelike game called Brogue.\n" +
		"Generate a brief, intriguing description of the item discovery.\n" +
		"Focus on the item's appearance, possible history, or magical aura.\n" +
		"Keep it to 1-2 sentences maximum.",
	models.EventPlayerDied: "You are the Dungeon Master AI for a roguelike game called Brogue.\n" +
		"The player has died. Generate a short, atmospheric epitaph that mentions\n" +
		"how they died and acknowledges their achievements. Maximum 3 sentences.",
	models.EventNewLevel: "You are the Dungeon Master AI for a roguelike game called Brogue.\n" +
		"Generate a brief, atmospheric description of the new dungeon level the player\n" +
		"has entered. Focus on sights, sounds, smells, and the general feel.\n" +
		"Keep it to 2 sentences maximum.",
	models.EventMonsterKilled: "You are the Dungeon Master AI for a roguelike game called Brogue.\n" +
		"Generate a brief, atmospheric description of the monster's death.\n" +
		"Focus on the manner of its defeat and the aftermath.\n" +
		"Keep it to 1-2 sentences maximum.",
}

// Sentence-limit rewrites applied for very verbose and very terse narrators.
var (
	verboseLimits = strings.NewReplacer(
		"1-2 sentences", "2-3 sentences",
		"Maximum 3 sentences", "Maximum 4 sentences",
		"Keep it to 2 sentences maximum", "Use up to 3 sentences",
	)
	terseLimits = strings.NewReplacer(
		"1-2 sentences", "1 sentence",
		"Maximum 3 sentences", "Maximum 1 sentence",
		"Keep it to 2 sentences maximum", "Use just 1 concise sentence",
	)
)

// SystemPrompt combines the per-event instructions with the personality
// modifier and adjusts stated sentence limits to the narrator's verbosity.
func SystemPrompt(p *personality.Personality, eventType string) string {
	base, ok := systemPrompts[eventType]
	if !ok {
		base = genericSystemPrompt
	}
	prompt := base + "\n\n" + p.SystemPromptModifier()

	switch {
	case p.High(personality.Verbosity):
		return verboseLimits.Replace(prompt)
	case p.Low(personality.Verbosity):
		return terseLimits.Replace(prompt)
	default:
		return prompt
	}
}

// Temperature derives sampling temperature from temperament, metaphor
// complexity and cosmic awareness, clamped to [0.5, 1.0] and rounded to two
// decimals.
func Temperature(p *personality.Personality) float64 {
	temperament := float64(p.Attribute(personality.Temperament))
	metaphor := float64(p.Attribute(personality.MetaphorComplexity))
	cosmic := float64(p.Attribute(personality.CosmicAwareness))

	t := 0.7 + (temperament-5)*0.04 + ((metaphor+cosmic)/2-5)*0.02
	t = math.Max(0.5, math.Min(1.0, t))
	return math.Round(t*100) / 100
}

// MaxTokens is the token budget: 90 at verbosity 1 up to 180 at 10.
func MaxTokens(p *personality.Personality) int {
	return 80 + p.Attribute(personality.Verbosity)*10
}
