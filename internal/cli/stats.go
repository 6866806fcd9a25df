package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/brogue-dm/internal/metrics"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show server statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := apiClient.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("get stats: %w", err)
		}
		printStats(cmd.OutOrStdout(), snap)
		return nil
	},
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Print the current session log (markdown)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := apiClient.SessionLog(cmd.Context())
		if err != nil {
			return fmt.Errorf("get session log: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), text)
		return nil
	},
}

func printStats(w io.Writer, s *metrics.Snapshot) {
	uptime := time.Duration(s.UptimeSeconds * float64(time.Second)).Round(time.Second)
	fmt.Fprintf(w, "Uptime:      %s\n", uptime)
	fmt.Fprintf(w, "Events:      %d\n", s.Events)
	fmt.Fprintf(w, "Narrations:  %d\n", s.Narrations)
	fmt.Fprintf(w, "Fallbacks:   %d\n", s.Fallbacks)
	fmt.Fprintf(w, "Timeouts:    %d\n", s.Timeouts)

	printOperation(w, "Generate", s.Generate)
	printOperation(w, "Persist", s.Persist)
	printOperation(w, "MCP tool calls", s.ToolCalls)
}

func printOperation(w io.Writer, name string, op *metrics.OperationSnapshot) {
	if op == nil {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", name)
	fmt.Fprintf(w, "  calls: %d  avg: %.1fms  min: %dms  max: %dms\n", op.Count, op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
	if op.TotalInputTokens != nil && op.TotalOutputTokens != nil {
		fmt.Fprintf(w, "  tokens: %d in / %d out\n", *op.TotalInputTokens, *op.TotalOutputTokens)
	}
}
