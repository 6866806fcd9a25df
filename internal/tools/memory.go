package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/raphaelgruber/brogue-dm/internal/memory"
	"github.com/raphaelgruber/brogue-dm/internal/models"
)

const defaultRecentCount = 5

// RecentMemoriesInput defines the input schema for the recent_memories tool.
type RecentMemoriesInput struct {
	N int `json:"n,omitempty" jsonschema:"Number of entries to return (default 5, at most 20)"`
}

// NewRecentMemoriesHandler lists short-term memory, most recent first.
func NewRecentMemoriesHandler(deps *Dependencies) mcp.ToolHandlerFor[RecentMemoriesInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input RecentMemoriesInput) (*mcp.CallToolResult, any, error) {
		n := input.N
		if n <= 0 {
			n = defaultRecentCount
		}
		if n > memory.ShortTermCapacity {
			n = memory.ShortTermCapacity
		}

		entries := deps.Memory.RecentMemories(n)
		if len(entries) == 0 {
			return TextResult("No events recorded yet"), nil, nil
		}
		return JSONResult(entries), nil, nil
	}
}

// GetKnowledgeInput defines the input schema for the get_knowledge tool.
type GetKnowledgeInput struct {
	Category string `json:"category,omitempty" jsonschema:"creatures or items"`
	Name     string `json:"name,omitempty" jsonschema:"Creature or item name; omit to list the whole category"`
}

// NewGetKnowledgeHandler returns what is known about one creature or item,
// or the whole category when no name is given.
func NewGetKnowledgeHandler(deps *Dependencies) mcp.ToolHandlerFor[GetKnowledgeInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input GetKnowledgeInput) (*mcp.CallToolResult, any, error) {
		category, err := models.ParseCategory(input.Category)
		if err != nil {
			return ErrorResult(err.Error(), "Use creatures or items"), nil, nil
		}

		if input.Name == "" {
			records, err := deps.Memory.ListKnowledge(ctx, category)
			if err != nil {
				deps.Logger.Error("list knowledge failed", "category", category, "error", err)
				return ErrorResult("Failed to list "+string(category), "Memory bank may be unavailable"), nil, nil
			}
			byName := make(map[string]models.KnowledgeRecord, len(records))
			for _, rec := range records {
				byName[rec.Name] = rec
			}
			return JSONResult(byName), nil, nil
		}

		rec, ok := deps.Memory.Knowledge(ctx, category, input.Name)
		if !ok {
			return ErrorResult(fmt.Sprintf("Nothing known about %s", input.Name), "Names are recorded from monsterName and itemName event fields"), nil, nil
		}
		return JSONResult(rec), nil, nil
	}
}
