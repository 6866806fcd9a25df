package settings

import "github.com/raphaelgruber/brogue-dm/internal/personality"

// Canned previews of the live voice, chosen by attribute thresholds.
const (
	previewWiseVerbose = "The passage ahead darkens, not merely in absence of light, but with something more... a shadow that does not belong to this world. You would be wise to tread carefully, for not all darkness yields to the simple flame of a torch."
	previewArchaic     = "Behold, the ancient chamber unfolds before thee, echoing with whispers of powers long forgotten. The very stars once gazed upon these stones, and their memory lingers still."
	previewDirect      = "A dark corridor stretches ahead. Watch for traps and listen for monsters. The air feels dangerous here."
	previewBalanced    = "The shadows deepen as you venture further into the cavern. A faint glimmer catches your eye - perhaps a treasure, or perhaps a trap. Choose your next steps with care."
)

// PreviewText returns a sample line in the style of the live personality.
func (s *Store) PreviewText() string {
	p := s.Personality()
	return Preview(p)
}

// Preview picks the canned preview for p.
func Preview(p *personality.Personality) string {
	switch {
	case p.High(personality.WisdomLevel) && p.High(personality.Verbosity):
		return previewWiseVerbose
	case p.High(personality.ArchaismLevel) && p.High(personality.CosmicAwareness):
		return previewArchaic
	case p.Low(personality.WisdomLevel) && p.Low(personality.Verbosity):
		return previewDirect
	default:
		return previewBalanced
	}
}
