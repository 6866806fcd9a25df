// Package server runs the Dungeon Master as an MCP server over stdio.
package server

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/raphaelgruber/brogue-dm/internal/metrics"
	"github.com/raphaelgruber/brogue-dm/internal/tools"
)

// Name is the implementation name reported to MCP clients.
const Name = "brogue-dm"

const instructions = "Brogue Dungeon Master narrator. Record game events with record_event to get narration, " +
	"inspect memory with recent_memories and get_knowledge, and tune the narrator's personality with get_settings and update_settings."

// Server owns the MCP server and the narrator tools registered on it.
type Server struct {
	mcp     *mcp.Server
	logger  *slog.Logger
	metrics *metrics.Collector
}

// New creates an MCP server named brogue-dm. deps.Metrics, when set, also
// receives tool call timings.
func New(version string, deps *tools.Dependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	impl := &mcp.Implementation{
		Name:    Name,
		Version: version,
	}

	return &Server{
		mcp:     mcp.NewServer(impl, &mcp.ServerOptions{Instructions: instructions}),
		logger:  logger,
		metrics: deps.Metrics,
	}
}

// Setup installs request logging and registers every narrator tool.
func (s *Server) Setup(deps *tools.Dependencies) {
	s.mcp.AddReceivingMiddleware(LoggingMiddleware(s.logger, s.metrics))
	n := tools.RegisterAll(s.mcp, deps)
	s.logger.Info("tools registered", "count", n)
}

// Run serves on stdio until the client disconnects or ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting MCP server", "transport", "stdio")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// RunTransport serves on t. Tests use in-memory transports.
func (s *Server) RunTransport(ctx context.Context, t mcp.Transport) error {
	return s.mcp.Run(ctx, t)
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}
