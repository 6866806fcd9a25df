package personality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/brogue-dm/internal/models"
)

func TestNewDefaults(t *testing.T) {
	p := New()

	require.Len(t, p.Attributes(), 15)
	for _, name := range AttributeNames {
		assert.Equal(t, DefaultValue, p.Attribute(name), name)
	}
	assert.Empty(t, p.SignaturePhrases())
}

func TestSetAttribute(t *testing.T) {
	tests := []struct {
		name  string
		attr  string
		value int
		ok    bool
		want  int
	}{
		{"in range", Verbosity, 7, true, 7},
		{"clamps high", Verbosity, 15, true, 10},
		{"clamps low", Verbosity, -3, true, 1},
		{"lower bound", HumorStyle, 1, true, 1},
		{"upper bound", HumorStyle, 10, true, 10},
		{"unknown", "bogus", 5, false, DefaultValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New()
			before := p.Attributes()

			assert.Equal(t, tt.ok, p.SetAttribute(tt.attr, tt.value))
			assert.Equal(t, tt.want, p.Attribute(tt.attr))
			if !tt.ok {
				assert.Equal(t, before, p.Attributes())
			}
		})
	}
}

func TestAttributeUnknownIsDefault(t *testing.T) {
	p := New()
	p.SetAttribute(Verbosity, 9)
	assert.Equal(t, DefaultValue, p.Attribute("nope"))
}

func TestApplyPreset(t *testing.T) {
	p := New()
	p.AddSignaturePhrase("mine")

	require.True(t, p.ApplyPreset("galadriel"))
	assert.Equal(t, 10, p.Attribute(WisdomLevel))
	assert.Equal(t, 3, p.Attribute(Temperament))
	phrases := p.SignaturePhrases()
	require.Len(t, phrases, 3)
	assert.Equal(t, "Even the smallest person can change the course of the future.", phrases[0])
	assert.NotContains(t, phrases, "mine")
}

func TestApplyPresetUnknownIsNoop(t *testing.T) {
	p := New()
	p.SetAttribute(Verbosity, 2)

	assert.False(t, p.ApplyPreset("sauron"))
	assert.Equal(t, 2, p.Attribute(Verbosity))
}

func TestApplyPartialPreset(t *testing.T) {
	p := New()
	p.SetAttribute(Temperament, 9)

	p.Apply(Preset{
		Attributes:       map[string]int{Verbosity: 2, "unknown": 8, HumorStyle: 40},
		SignaturePhrases: []string{"a", "b"},
	})

	assert.Equal(t, 2, p.Attribute(Verbosity))
	assert.Equal(t, 9, p.Attribute(Temperament))
	assert.Equal(t, 10, p.Attribute(HumorStyle))
	assert.Equal(t, []string{"a", "b"}, p.SignaturePhrases())
	assert.Len(t, p.Attributes(), 15)
}

func TestMatches(t *testing.T) {
	p := New()
	p.ApplyPreset("gandalf")
	gandalf, _ := Builtin("gandalf")
	aragorn, _ := Builtin("aragorn")

	assert.True(t, p.Matches(gandalf))
	assert.False(t, p.Matches(aragorn))

	p.SetAttribute(HumorStyle, 5)
	assert.False(t, p.Matches(gandalf))

	p.ApplyPreset("gandalf")
	p.RemoveSignaturePhrase(0)
	assert.False(t, p.Matches(gandalf))
}

func TestMatchesPhraseOrder(t *testing.T) {
	p := New()
	p.Apply(Preset{SignaturePhrases: []string{"a", "b"}})

	assert.True(t, p.Matches(Preset{SignaturePhrases: []string{"a", "b"}}))
	assert.False(t, p.Matches(Preset{SignaturePhrases: []string{"b", "a"}}))
	assert.False(t, p.Matches(Preset{SignaturePhrases: []string{"a"}}))
}

func TestSignaturePhrases(t *testing.T) {
	p := New()

	assert.False(t, p.AddSignaturePhrase(""))
	assert.True(t, p.AddSignaturePhrase("one"))
	assert.True(t, p.AddSignaturePhrase("two"))
	assert.False(t, p.AddSignaturePhrase("one"))
	assert.Equal(t, []string{"one", "two"}, p.SignaturePhrases())

	assert.False(t, p.RemoveSignaturePhrase(2))
	assert.False(t, p.RemoveSignaturePhrase(-1))
	assert.True(t, p.RemoveSignaturePhrase(0))
	assert.Equal(t, []string{"two"}, p.SignaturePhrases())
}

func TestCloneIsIndependent(t *testing.T) {
	p := New()
	p.ApplyPreset("aragorn")
	c := p.Clone()

	c.SetAttribute(Verbosity, 1)
	c.AddSignaturePhrase("new")

	assert.Equal(t, 4, p.Attribute(Verbosity))
	assert.Len(t, p.SignaturePhrases(), 3)
}

func TestBuiltinReturnsCopy(t *testing.T) {
	g, ok := Builtin("gandalf")
	require.True(t, ok)
	g.Attributes[Verbosity] = 1
	g.SignaturePhrases[0] = "changed"

	again, _ := Builtin("gandalf")
	assert.Equal(t, 6, again.Attributes[Verbosity])
	assert.Equal(t, "All we have to decide is what to do with the time that is given us.", again.SignaturePhrases[0])
	assert.Equal(t, []string{"gandalf", "galadriel", "aragorn"}, BuiltinNames())
}

func TestSystemPromptModifierDefaults(t *testing.T) {
	want := "You are narrating as a Dungeon Master with the following personality traits:\n" +
		"- Voice: balanced\n" +
		"- Wisdom: experienced\n" +
		"- Style: measured\n"
	assert.Equal(t, want, New().SystemPromptModifier())
}

func TestSystemPromptModifierThresholds(t *testing.T) {
	p := New()
	for _, name := range AttributeNames {
		p.SetAttribute(name, 8)
	}
	p.Apply(Preset{SignaturePhrases: []string{"One.", "Two."}})

	want := "You are narrating as a Dungeon Master with the following personality traits:\n" +
		"- Voice: casual and conversational\n" +
		"- Wisdom: ancient and deeply knowledgeable\n" +
		"- Style: elaborate and detailed\n" +
		"- Often reference nature, stars, trees, and natural elements\n" +
		"- Use complex metaphors and allegories\n" +
		"- Show awareness of greater cosmic forces and destinies\n" +
		"- Use archaic speech patterns and older English forms\n" +
		"- Include dramatic pauses, indicated by ellipses or brief reflections\n" +
		"- Occasionally pose philosophical questions to the player\n" +
		"- Consider using these signature phrases when appropriate: \"One.\", \"Two.\"\n"
	assert.Equal(t, want, p.SystemPromptModifier())

	for _, name := range AttributeNames {
		p.SetAttribute(name, 7)
	}
	assert.NotContains(t, p.SystemPromptModifier(), "nature")

	p.SetAttribute(VoiceTone, 3)
	p.SetAttribute(WisdomLevel, 3)
	p.SetAttribute(Verbosity, 3)
	out := p.SystemPromptModifier()
	assert.Contains(t, out, "- Voice: formal and dignified\n")
	assert.Contains(t, out, "- Wisdom: fresh and learning\n")
	assert.Contains(t, out, "- Style: concise and direct\n")
}

func TestEnhancePrompt(t *testing.T) {
	tests := []struct {
		name      string
		attrs     map[string]int
		eventType string
		want      string
	}{
		{"no gates", nil, models.EventMonsterEncountered, "Base."},
		{"insight", map[string]int{CharacterInsight: 8}, models.EventMonsterEncountered,
			"Base. Provide insight into the monster's nature or motivation."},
		{"insight only for encounters", map[string]int{CharacterInsight: 8}, models.EventMonsterKilled, "Base."},
		{"cosmic item", map[string]int{CosmicAwareness: 9}, models.EventItemDiscovered,
			"Base. Hint at the item's history or place in the greater scheme."},
		{"wise death", map[string]int{WisdomLevel: 10}, models.EventPlayerDied,
			"Base. Offer a philosophical perspective on death and the journey."},
		{"threshold is strict", map[string]int{WisdomLevel: 7}, models.EventPlayerDied, "Base."},
		{"humor after event clause", map[string]int{WisdomLevel: 8, HumorStyle: 8}, models.EventPlayerDied,
			"Base. Offer a philosophical perspective on death and the journey. Include a subtle touch of humor if appropriate."},
		{"humor any type", map[string]int{HumorStyle: 9}, "UNKNOWN", "Base. Include a subtle touch of humor if appropriate."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New()
			p.Apply(Preset{Attributes: tt.attrs})
			assert.Equal(t, tt.want, p.EnhancePrompt("Base.", tt.eventType))
		})
	}
}
