package tools

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool names.
const (
	ToolPing           = "ping"
	ToolRecordEvent    = "record_event"
	ToolRecentMemories = "recent_memories"
	ToolGetKnowledge   = "get_knowledge"
	ToolGetSettings    = "get_settings"
	ToolUpdateSettings = "update_settings"
	ToolStats          = "stats"
)

// Names lists every tool RegisterAll adds, in registration order.
var Names = []string{
	ToolPing,
	ToolRecordEvent,
	ToolRecentMemories,
	ToolGetKnowledge,
	ToolGetSettings,
	ToolUpdateSettings,
	ToolStats,
}

// RegisterAll registers the narrator tools and returns how many were added.
func RegisterAll(server *mcp.Server, deps *Dependencies) int {
	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolPing,
		Description: "Check that the Dungeon Master is reachable; echoes its input or answers with the active preset",
	}, NewPingHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolRecordEvent,
		Description: "Record a game event in the Dungeon Master's memory and return its narration when the event warrants one",
	}, NewRecordEventHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolRecentMemories,
		Description: "List the most recent events in short-term memory, newest first",
	}, NewRecentMemoriesHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolGetKnowledge,
		Description: "Show accumulated knowledge about a creature or item, or list a whole category",
	}, NewGetKnowledgeHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolGetSettings,
		Description: "Show the narrator's active preset, personality attributes and signature phrases",
	}, NewGetSettingsHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolUpdateSettings,
		Description: "Change the narrator personality: apply, save or delete presets, set attributes, edit signature phrases",
	}, NewUpdateSettingsHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolStats,
		Description: "Show narration, fallback, persistence and tool call statistics",
	}, NewStatsHandler(deps))

	return len(Names)
}
