package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/raphaelgruber/brogue-dm/internal/models"
)

// GetSettingsInput defines the (empty) input schema for the get_settings tool.
type GetSettingsInput struct{}

// NewGetSettingsHandler returns the live narrator personality.
func NewGetSettingsHandler(deps *Dependencies) mcp.ToolHandlerFor[GetSettingsInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input GetSettingsInput) (*mcp.CallToolResult, any, error) {
		return JSONResult(deps.Settings.View()), nil, nil
	}
}

// UpdateSettingsInput defines the input schema for the update_settings tool.
type UpdateSettingsInput struct {
	Action         string `json:"action,omitempty" jsonschema:"One of applyPreset, savePreset, deletePreset, setAttribute, addPhrase, removePhrase, resetDefault"`
	PresetName     string `json:"presetName,omitempty" jsonschema:"Preset for applyPreset, savePreset and deletePreset"`
	AttributeName  string `json:"attributeName,omitempty" jsonschema:"Attribute for setAttribute, e.g. verbosity"`
	AttributeValue *int   `json:"attributeValue,omitempty" jsonschema:"Value 1-10 for setAttribute; out of range values are clamped"`
	Phrase         string `json:"phrase,omitempty" jsonschema:"Signature phrase for addPhrase"`
	PhraseIndex    *int   `json:"phraseIndex,omitempty" jsonschema:"Index for removePhrase"`
}

// NewUpdateSettingsHandler runs one settings action and returns the
// resulting settings.
func NewUpdateSettingsHandler(deps *Dependencies) mcp.ToolHandlerFor[UpdateSettingsInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input UpdateSettingsInput) (*mcp.CallToolResult, any, error) {
		sr := models.SettingsRequest{
			Action:        input.Action,
			PresetName:    input.PresetName,
			AttributeName: input.AttributeName,
			Phrase:        input.Phrase,
			PhraseIndex:   input.PhraseIndex,
		}
		if input.AttributeValue != nil {
			sr.AttributeValue = *input.AttributeValue
		}

		ok, known := deps.Settings.Apply(sr)
		if !known {
			return ErrorResult("Unknown action "+input.Action, "Use applyPreset, savePreset, deletePreset, setAttribute, addPhrase, removePhrase or resetDefault"), nil, nil
		}
		if !ok {
			return ErrorResult("Failed to update settings", "Check the preset, attribute or phrase index"), nil, nil
		}

		deps.Logger.Info("update_settings completed", "action", input.Action, "preset", deps.Settings.CurrentPresetName())
		return JSONResult(deps.Settings.View()), nil, nil
	}
}
