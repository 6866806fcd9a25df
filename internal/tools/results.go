package tools

import (
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ErrorResult reports a tool-level failure the calling agent can read and
// act on. A non-empty hint is appended as "{msg}. {hint}".
func ErrorResult(msg, hint string) *mcp.CallToolResult {
	if hint != "" {
		msg += ". " + hint
	}
	return result(msg, true)
}

// TextResult wraps narration or a status line.
func TextResult(text string) *mcp.CallToolResult {
	return result(text, false)
}

// JSONResult renders v as indented JSON for settings, knowledge and stats.
func JSONResult(v any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ErrorResult("Failed to encode result", err.Error())
	}
	return result(string(b), false)
}

func result(text string, isErr bool) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: isErr,
	}
}
