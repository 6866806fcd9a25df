package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// PingInput defines the input schema for the ping tool.
type PingInput struct {
	Echo string `json:"echo,omitempty" jsonschema:"Text to echo back instead of the status line"`
}

// NewPingHandler echoes its input, or reports that the narrator is awake
// along with the active preset.
func NewPingHandler(deps *Dependencies) mcp.ToolHandlerFor[PingInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input PingInput) (*mcp.CallToolResult, any, error) {
		if input.Echo != "" {
			return TextResult(input.Echo), nil, nil
		}
		if deps == nil || deps.Settings == nil {
			return TextResult("pong"), nil, nil
		}
		return TextResult(fmt.Sprintf("pong (narrator preset: %s)", deps.Settings.CurrentPresetName())), nil, nil
	}
}
