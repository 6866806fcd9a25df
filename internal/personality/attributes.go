// Package personality models the narrator's tunable voice: fifteen clamped
// attribute scales plus an ordered list of signature phrases.
package personality

// Attribute names.
const (
	VoiceTone          = "voiceTone"
	WisdomLevel        = "wisdomLevel"
	Verbosity          = "verbosity"
	Temperament        = "temperament"
	Perspective        = "perspective"
	NatureReferences   = "natureReferences"
	MetaphorComplexity = "metaphorComplexity"
	CosmicAwareness    = "cosmicAwareness"
	HumorStyle         = "humorStyle"
	CharacterInsight   = "characterInsight"
	QuestionFrequency  = "questionFrequency"
	SyntaxComplexity   = "syntaxComplexity"
	ArchaismLevel      = "archaismLevel"
	IdiomUsage         = "idiomUsage"
	DramaticPauses     = "dramaticPauses"
)

// Attribute scale bounds.
const (
	MinValue     = 1
	MaxValue     = 10
	DefaultValue = 5
)

// AttributeNames lists every attribute in display order: core attributes,
// thematic tendencies, then speech patterns.
var AttributeNames = []string{
	VoiceTone,
	WisdomLevel,
	Verbosity,
	Temperament,
	Perspective,
	NatureReferences,
	MetaphorComplexity,
	CosmicAwareness,
	HumorStyle,
	CharacterInsight,
	QuestionFrequency,
	SyntaxComplexity,
	ArchaismLevel,
	IdiomUsage,
	DramaticPauses,
}

var attributeSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(AttributeNames))
	for _, n := range AttributeNames {
		m[n] = struct{}{}
	}
	return m
}()

// IsAttribute reports whether name is a known attribute.
func IsAttribute(name string) bool {
	_, ok := attributeSet[name]
	return ok
}

// Clamp bounds v to the attribute scale.
func Clamp(v int) int {
	if v < MinValue {
		return MinValue
	}
	if v > MaxValue {
		return MaxValue
	}
	return v
}
