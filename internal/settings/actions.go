package settings

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/raphaelgruber/brogue-dm/internal/models"
	"github.com/raphaelgruber/brogue-dm/internal/personality"
)

// Apply runs one settings action. known is false for unrecognized
// actions; ok reports whether the action succeeded. Actions with missing
// arguments fail.
func (s *Store) Apply(req models.SettingsRequest) (ok, known bool) {
	switch req.Action {
	case models.ActionApplyPreset:
		return req.PresetName != "" && s.ApplyPreset(req.PresetName), true
	case models.ActionSavePreset:
		return req.PresetName != "" && s.SaveCustomPreset(req.PresetName), true
	case models.ActionDeletePreset:
		return req.PresetName != "" && s.DeleteCustomPreset(req.PresetName), true
	case models.ActionSetAttribute:
		if req.AttributeName == "" {
			return false, true
		}
		value, err := AttributeValue(req.AttributeValue)
		if err != nil {
			return false, true
		}
		return s.SetAttribute(req.AttributeName, value), true
	case models.ActionAddPhrase:
		return req.Phrase != "" && s.AddSignaturePhrase(req.Phrase), true
	case models.ActionRemovePhrase:
		return req.PhraseIndex != nil && s.RemoveSignaturePhrase(*req.PhraseIndex), true
	case models.ActionResetDefault:
		return s.ResetDefault(), true
	default:
		return false, false
	}
}

// AttributeValue converts a transport value to an attribute value. It
// accepts JSON numbers and numeric strings. Fractional values are rounded and
// out-of-range values saturate at the attribute bounds. NaN is rejected.
func AttributeValue(v any) (int, error) {
	switch x := v.(type) {
	case float64:
		return fromFloat(x)
	case int:
		return personality.Clamp(x), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, err
		}
		return fromFloat(f)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("attribute value %q is not a number", x)
		}
		return fromFloat(f)
	default:
		return 0, fmt.Errorf("attribute value of type %T is not a number", v)
	}
}

// fromFloat clamps before converting; int(f) is undefined outside the int range.
func fromFloat(f float64) (int, error) {
	if math.IsNaN(f) {
		return 0, fmt.Errorf("attribute value is NaN")
	}
	f = math.Max(personality.MinValue, math.Min(personality.MaxValue, math.Round(f)))
	return int(f), nil
}
