package narrator

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/raphaelgruber/brogue-dm/internal/models"
)

//go:embed fallbacks.yaml
var defaultFallbacksYAML []byte

// GenericFallback is the last-resort narration.
const GenericFallback = "The dungeon seems to shift around you."

var cannedFallbacks = map[string]string{
	models.EventMonsterEncountered: "You encounter a strange creature in the dungeon depths.",
	models.EventItemDiscovered:     "You find an interesting item amidst the dungeon debris.",
	models.EventPlayerDied:         "Your journey ends here, but the dungeon awaits your return...",
	models.EventNewLevel:           "You enter a new level of the dungeon, the air feels different here.",
	models.EventMonsterKilled:      "The creature falls before you, its essence returning to the dungeon depths.",
}

var placeholderRe = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// Fallbacks holds per-event template pools.
type Fallbacks struct {
	pools map[string][]string
}

// NewFallbacks wraps the given pools.
func NewFallbacks(pools map[string][]string) *Fallbacks {
	if pools == nil {
		pools = map[string][]string{}
	}
	return &Fallbacks{pools: pools}
}

// DefaultFallbacks returns the built-in pools.
func DefaultFallbacks() *Fallbacks {
	f, err := ParseFallbacks(defaultFallbacksYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded fallbacks: %v", err))
	}
	return f
}

// ParseFallbacks decodes a YAML map of event type to template list.
func ParseFallbacks(data []byte) (*Fallbacks, error) {
	var pools map[string][]string
	if err := yaml.Unmarshal(data, &pools); err != nil {
		return nil, fmt.Errorf("decode fallbacks: %w", err)
	}
	return NewFallbacks(pools), nil
}

// LoadFallbacks reads pools from a YAML file.
func LoadFallbacks(path string) (*Fallbacks, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fallbacks: %w", err)
	}
	return ParseFallbacks(data)
}

// Pool returns the templates registered for eventType.
func (f *Fallbacks) Pool(eventType string) []string {
	return f.pools[eventType]
}

// Pick chooses fallback narration: a random template from the event's pool
// with placeholders filled from data, else the canned sentence for the
// event type, else GenericFallback. The choice is uniform over the templates
// whose placeholders all resolve from data; only when none resolve is it
// uniform over the whole pool.
func (f *Fallbacks) Pick(rng Rand, eventType string, data map[string]any) string {
	pool := f.Pool(eventType)
	if len(pool) == 0 {
		return CannedFallback(eventType)
	}

	candidates := make([]string, 0, len(pool))
	for _, t := range pool {
		if resolvable(t, data) {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		candidates = pool
	}

	return FillTemplate(candidates[rng.Intn(len(candidates))], data)
}

// CannedFallback returns the fixed sentence for a known event type, or
// GenericFallback.
func CannedFallback(eventType string) string {
	if s, ok := cannedFallbacks[eventType]; ok {
		return s
	}
	return GenericFallback
}

// FillTemplate replaces {key} with the formatted value of data[key].
// Placeholders without a matching key are left as-is.
func FillTemplate(template string, data map[string]any) string {
	if len(data) == 0 || !strings.Contains(template, "{") {
		return template
	}
	return placeholderRe.ReplaceAllStringFunc(template, func(m string) string {
		v, ok := data[m[1:len(m)-1]]
		if !ok {
			return m
		}
		return models.FormatValue(v)
	})
}

func resolvable(template string, data map[string]any) bool {
	for _, m := range placeholderRe.FindAllStringSubmatch(template, -1) {
		if _, ok := data[m[1]]; !ok {
			return false
		}
	}
	return true
}
