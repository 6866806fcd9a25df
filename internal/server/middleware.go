package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/raphaelgruber/brogue-dm/internal/metrics"
)

// maxArgLogLen caps logged tool arguments.
const maxArgLogLen = 200

// slowCallThreshold matches the HTTP API: record_event may wait on the
// generation backend, so only calls beyond a few seconds are WARN.
const slowCallThreshold = 3 * time.Second

// LoggingMiddleware logs every MCP request with its duration. Tool calls are
// logged with the tool name and arguments, flagged when the tool reported an
// error result, and timed into mc when mc is non-nil.
func LoggingMiddleware(logger *slog.Logger, mc *metrics.Collector) mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			start := time.Now()
			result, err := next(ctx, method, req)
			elapsed := time.Since(start)

			attrs := []any{
				"method", method,
				"duration_ms", elapsed.Milliseconds(),
			}

			if call, ok := req.GetParams().(*mcp.CallToolParamsRaw); ok {
				attrs = append(attrs, "tool", call.Name)
				if len(call.Arguments) > 0 {
					attrs = append(attrs, "args", truncate(string(call.Arguments), maxArgLogLen))
				}
				if res, ok := result.(*mcp.CallToolResult); ok && res.IsError {
					attrs = append(attrs, "tool_error", true)
				}
				if mc != nil {
					mc.RecordTiming(metrics.OpToolCall, elapsed)
				}
			}

			switch {
			case err != nil:
				attrs = append(attrs, "error", err.Error())
				logger.Error("mcp request failed", attrs...)
			case elapsed > slowCallThreshold:
				logger.Warn("slow mcp request", attrs...)
			default:
				logger.Debug("mcp request", attrs...)
			}

			return result, err
		}
	}
}

// truncate shortens s to maxLen bytes, marking the cut with "...".
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
