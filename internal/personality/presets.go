package personality

import "maps"

// DefaultPreset is applied to a fresh settings store.
const DefaultPreset = "gandalf"

// Preset is a named bundle of attribute overrides and signature phrases.
// Attributes may be partial; only listed keys are applied.
type Preset struct {
	Attributes       map[string]int `yaml:"attributes" json:"attributes"`
	SignaturePhrases []string       `yaml:"signaturePhrases" json:"signaturePhrases"`
}

// Clone returns a deep copy of p.
func (p Preset) Clone() Preset {
	return Preset{
		Attributes:       maps.Clone(p.Attributes),
		SignaturePhrases: append([]string(nil), p.SignaturePhrases...),
	}
}

var builtinNames = []string{"gandalf", "galadriel", "aragorn"}

var builtins = map[string]Preset{
	"gandalf": {
		Attributes: map[string]int{
			VoiceTone:          7,
			WisdomLevel:        9,
			Verbosity:          6,
			Temperament:        5,
			Perspective:        6,
			NatureReferences:   7,
			MetaphorComplexity: 8,
			CosmicAwareness:    9,
			HumorStyle:         4,
			CharacterInsight:   8,
			QuestionFrequency:  3,
			SyntaxComplexity:   7,
			ArchaismLevel:      6,
			IdiomUsage:         7,
			DramaticPauses:     7,
		},
		SignaturePhrases: []string{
			"All we have to decide is what to do with the time that is given us.",
			"Many that live deserve death. And some that die deserve life.",
			"There are darker things in the deep places of the world.",
			"This foe is beyond any of you.",
			"Not all those who wander are lost.",
		},
	},
	"galadriel": {
		Attributes: map[string]int{
			VoiceTone:          8,
			WisdomLevel:        10,
			Verbosity:          7,
			Temperament:        3,
			Perspective:        5,
			NatureReferences:   9,
			MetaphorComplexity: 9,
			CosmicAwareness:    10,
			HumorStyle:         2,
			CharacterInsight:   10,
			QuestionFrequency:  5,
			SyntaxComplexity:   8,
			ArchaismLevel:      7,
			IdiomUsage:         8,
			DramaticPauses:     8,
		},
		SignaturePhrases: []string{
			"Even the smallest person can change the course of the future.",
			"The world is changed. I feel it in the water. I feel it in the earth.",
			"Things that were... things that are... and some things that have not yet come to pass.",
		},
	},
	"aragorn": {
		Attributes: map[string]int{
			VoiceTone:          5,
			WisdomLevel:        7,
			Verbosity:          4,
			Temperament:        6,
			Perspective:        7,
			NatureReferences:   6,
			MetaphorComplexity: 5,
			CosmicAwareness:    6,
			HumorStyle:         3,
			CharacterInsight:   7,
			QuestionFrequency:  2,
			SyntaxComplexity:   5,
			ArchaismLevel:      5,
			IdiomUsage:         6,
			DramaticPauses:     4,
		},
		SignaturePhrases: []string{
			"There is always hope.",
			"The day has come at last.",
			"I would have gone with you to the end.",
		},
	},
}

// BuiltinNames returns the built-in preset names in their canonical order.
func BuiltinNames() []string {
	return append([]string(nil), builtinNames...)
}

// Builtin returns a copy of the named built-in preset.
func Builtin(name string) (Preset, bool) {
	p, ok := builtins[name]
	if !ok {
		return Preset{}, false
	}
	return p.Clone(), true
}

// IsBuiltin reports whether name is a built-in preset.
func IsBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}
