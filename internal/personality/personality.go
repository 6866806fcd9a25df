package personality

import (
	"maps"
	"slices"
	"strings"

	"github.com/raphaelgruber/brogue-dm/internal/models"
)

// Personality is an attribute vector plus signature phrases. It is a plain
// value owned by its holder and is not safe for concurrent mutation; share
// it across goroutines via Clone.
type Personality struct {
	attrs   map[string]int
	phrases []string
}

// New returns a personality with every attribute at DefaultValue and no
// signature phrases.
func New() *Personality {
	attrs := make(map[string]int, len(AttributeNames))
	for _, n := range AttributeNames {
		attrs[n] = DefaultValue
	}
	return &Personality{attrs: attrs}
}

// SetAttribute stores the clamped value. It returns false, leaving the
// personality unchanged, when name is not a known attribute.
func (p *Personality) SetAttribute(name string, value int) bool {
	if !IsAttribute(name) {
		return false
	}
	p.attrs[name] = Clamp(value)
	return true
}

// Attribute returns the stored value, or DefaultValue for unknown names.
func (p *Personality) Attribute(name string) int {
	v, ok := p.attrs[name]
	if !ok {
		return DefaultValue
	}
	return v
}

// Attributes returns a copy of the attribute vector.
func (p *Personality) Attributes() map[string]int {
	return maps.Clone(p.attrs)
}

// SignaturePhrases returns a copy of the phrase list.
func (p *Personality) SignaturePhrases() []string {
	return slices.Clone(p.phrases)
}

// ApplyPreset applies the named built-in preset. Unknown names return false
// and change nothing.
func (p *Personality) ApplyPreset(name string) bool {
	preset, ok := builtins[name]
	if !ok {
		return false
	}
	p.Apply(preset)
	return true
}

// Apply overlays the preset's listed attributes and replaces the phrase list.
// Unknown attribute names in the preset are ignored.
func (p *Personality) Apply(preset Preset) {
	for k, v := range preset.Attributes {
		if IsAttribute(k) {
			p.attrs[k] = Clamp(v)
		}
	}
	p.phrases = slices.Clone(preset.SignaturePhrases)
}

// AddSignaturePhrase appends phrase unless it is empty or already present.
func (p *Personality) AddSignaturePhrase(phrase string) bool {
	if phrase == "" || slices.Contains(p.phrases, phrase) {
		return false
	}
	p.phrases = append(p.phrases, phrase)
	return true
}

// RemoveSignaturePhrase removes the phrase at index.
func (p *Personality) RemoveSignaturePhrase(index int) bool {
	if index < 0 || index >= len(p.phrases) {
		return false
	}
	p.phrases = slices.Delete(p.phrases, index, index+1)
	return true
}

// Matches reports whether every attribute listed in preset equals the live
// value and the phrase lists are equal element by element.
func (p *Personality) Matches(preset Preset) bool {
	for k, v := range preset.Attributes {
		if cur, ok := p.attrs[k]; !ok || cur != v {
			return false
		}
	}
	return slices.Equal(p.phrases, preset.SignaturePhrases)
}

// Snapshot captures the full personality as a preset.
func (p *Personality) Snapshot() Preset {
	return Preset{
		Attributes:       maps.Clone(p.attrs),
		SignaturePhrases: slices.Clone(p.phrases),
	}
}

// Clone returns an independent copy.
func (p *Personality) Clone() *Personality {
	return &Personality{
		attrs:   maps.Clone(p.attrs),
		phrases: slices.Clone(p.phrases),
	}
}

// SystemPromptModifier describes the personality as narration guidance.
func (p *Personality) SystemPromptModifier() string {
	var b strings.Builder
	b.WriteString("You are narrating as a Dungeon Master with the following personality traits:\n")

	b.WriteString("- Voice: " + p.tier(VoiceTone, "casual and conversational", "formal and dignified", "balanced") + "\n")
	b.WriteString("- Wisdom: " + p.tier(WisdomLevel, "ancient and deeply knowledgeable", "fresh and learning", "experienced") + "\n")
	b.WriteString("- Style: " + p.tier(Verbosity, "elaborate and detailed", "concise and direct", "measured") + "\n")

	gated := []struct {
		attr   string
		clause string
	}{
		{NatureReferences, "- Often reference nature, stars, trees, and natural elements\n"},
		{MetaphorComplexity, "- Use complex metaphors and allegories\n"},
		{CosmicAwareness, "- Show awareness of greater cosmic forces and destinies\n"},
		{ArchaismLevel, "- Use archaic speech patterns and older English forms\n"},
		{DramaticPauses, "- Include dramatic pauses, indicated by ellipses or brief reflections\n"},
		{QuestionFrequency, "- Occasionally pose philosophical questions to the player\n"},
	}
	for _, g := range gated {
		if p.High(g.attr) {
			b.WriteString(g.clause)
		}
	}

	if len(p.phrases) > 0 {
		b.WriteString("- Consider using these signature phrases when appropriate: \"")
		b.WriteString(strings.Join(p.phrases, "\", \""))
		b.WriteString("\"\n")
	}

	return b.String()
}

// EnhancePrompt appends event-specific and general guidance to basePrompt.
func (p *Personality) EnhancePrompt(basePrompt, eventType string) string {
	out := basePrompt

	switch eventType {
	case models.EventMonsterEncountered:
		if p.High(CharacterInsight) {
			out += " Provide insight into the monster's nature or motivation."
		}
	case models.EventItemDiscovered:
		if p.High(CosmicAwareness) {
			out += " Hint at the item's history or place in the greater scheme."
		}
	case models.EventPlayerDied:
		if p.High(WisdomLevel) {
			out += " Offer a philosophical perspective on death and the journey."
		}
	}

	if p.High(HumorStyle) {
		out += " Include a subtle touch of humor if appropriate."
	}
	return out
}

// High reports whether the attribute is above 7.
func (p *Personality) High(name string) bool {
	return p.Attribute(name) > 7
}

// Low reports whether the attribute is below 4.
func (p *Personality) Low(name string) bool {
	return p.Attribute(name) < 4
}

func (p *Personality) tier(name, high, low, mid string) string {
	switch {
	case p.High(name):
		return high
	case p.Low(name):
		return low
	default:
		return mid
	}
}
