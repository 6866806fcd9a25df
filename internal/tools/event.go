package tools

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/raphaelgruber/brogue-dm/internal/models"
)

// RecordEventInput defines the input schema for the record_event tool.
type RecordEventInput struct {
	EventType string         `json:"eventType,omitempty" jsonschema:"Event type such as MONSTER_ENCOUNTERED, MONSTER_KILLED, ITEM_DISCOVERED, PLAYER_DIED or NEW_LEVEL"`
	EventData map[string]any `json:"eventData,omitempty" jsonschema:"Event fields such as monsterName, itemName, isRare, killedBy or depth"`
	Context   map[string]any `json:"context,omitempty" jsonschema:"Game context such as playerLevel"`
}

// NewRecordEventHandler records a game event and returns the narration, or
// "Event recorded" when the event is not narrated.
func NewRecordEventHandler(deps *Dependencies) mcp.ToolHandlerFor[RecordEventInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input RecordEventInput) (*mcp.CallToolResult, any, error) {
		if input.EventType == "" {
			return ErrorResult("eventType is required", "Use one of "+knownTypes()), nil, nil
		}

		res := deps.Narrator.HandleEvent(ctx, models.Event{
			Type:    input.EventType,
			Data:    input.EventData,
			Context: input.Context,
		})

		deps.Logger.Info("record_event completed", "event_type", input.EventType, "enhanced", res.Enhanced)
		if !res.Enhanced {
			return TextResult("Event recorded"), nil, nil
		}
		return TextResult(res.Narrative), nil, nil
	}
}

func knownTypes() string {
	return strings.Join(models.KnownEventTypes, ", ")
}
