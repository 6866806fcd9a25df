package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/brogue-dm/internal/client"
	"github.com/raphaelgruber/brogue-dm/internal/models"
)

var knowledgeCmd = &cobra.Command{
	Use:   "knowledge creature|item [NAME]",
	Short: "Show what the Dungeon Master knows about creatures or items",
	Long: `Show accumulated knowledge for one creature or item, or list a whole
category when no name is given.

Examples:
  dm knowledge creature "goblin chieftain"
  dm knowledge items`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runKnowledge,
}

func runKnowledge(cmd *cobra.Command, args []string) error {
	category, err := models.ParseCategory(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		records, err := apiClient.KnowledgeList(cmd.Context(), string(category))
		if err != nil {
			return fmt.Errorf("list knowledge: %w", err)
		}
		if len(records) == 0 {
			fmt.Fprintf(out, "No %s known yet.\n", category)
			return nil
		}

		names := make([]string, 0, len(records))
		for name := range records {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Fprintf(out, "Known %s (%d):\n\n", category, len(records))
		for _, name := range names {
			r := records[name]
			fmt.Fprintf(out, "  %-24s seen %d× (last %s)\n", name, r.EncounterCount, r.LastSeen.Format(time.DateTime))
		}
		return nil
	}

	rec, err := apiClient.Knowledge(cmd.Context(), string(category), args[1])
	if errors.Is(err, client.ErrNotFound) {
		fmt.Fprintf(out, "Nothing known about %q.\n", args[1])
		return nil
	}
	if err != nil {
		return fmt.Errorf("get knowledge: %w", err)
	}
	printRecord(out, rec)
	return nil
}

func printRecord(w io.Writer, r *models.KnowledgeRecord) {
	fmt.Fprintln(w, defaultTheme.headingStyle().Render(r.Name))
	fmt.Fprintf(w, "  Category:    %s\n", r.Category)
	fmt.Fprintf(w, "  Encounters:  %d\n", r.EncounterCount)
	fmt.Fprintf(w, "  First seen:  %s\n", r.FirstSeen.Format(time.DateTime))
	fmt.Fprintf(w, "  Last seen:   %s\n", r.LastSeen.Format(time.DateTime))
	if len(r.Fields) > 0 {
		fmt.Fprintf(w, "  Facts:       %s\n", formatKV(r.Fields))
	}
}
