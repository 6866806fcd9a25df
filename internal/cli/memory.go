package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/brogue-dm/internal/models"
)

var (
	recentCount  int
	historyLimit int
)

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show the most recent events in short-term memory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := apiClient.Recent(cmd.Context(), recentCount)
		if err != nil {
			return fmt.Errorf("get recent memories: %w", err)
		}
		printEntries(cmd.OutOrStdout(), entries)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show significant events from the durable memory bank",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := apiClient.History(cmd.Context(), historyLimit)
		if err != nil {
			return fmt.Errorf("get history: %w", err)
		}
		printEntries(cmd.OutOrStdout(), entries)
		return nil
	},
}

func init() {
	recentCmd.Flags().IntVarP(&recentCount, "count", "n", 5, "number of events")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "max events")
}

func printEntries(w io.Writer, entries []models.MemoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No events recorded yet.")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%s  %s  %s\n",
			defaultTheme.hintStyle().Render(e.Timestamp.Format("15:04:05")),
			defaultTheme.statusStyle().Render(fmt.Sprintf("%-19s", e.EventType)),
			formatKV(e.EventData))
	}
}
