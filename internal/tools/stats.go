package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// StatsInput defines the (empty) input schema for the stats tool.
type StatsInput struct{}

// NewStatsHandler returns narration and persistence statistics.
func NewStatsHandler(deps *Dependencies) mcp.ToolHandlerFor[StatsInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input StatsInput) (*mcp.CallToolResult, any, error) {
		return JSONResult(deps.Metrics.Snapshot()), nil, nil
	}
}
