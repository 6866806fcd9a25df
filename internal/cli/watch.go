package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/brogue-dm/internal/models"
)

var watchCount int

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream narrations as the server produces them",
	Long: `Connect to the server's narration feed and print every narrative as it is
generated. Stops on Ctrl+C, or after --count narrations.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().IntVarP(&watchCount, "count", "n", 0, "stop after this many narrations (0 = forever)")
}

// errWatchDone stops the feed once --count narrations arrived.
var errWatchDone = errors.New("watch done")

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, defaultTheme.hintStyle().Render("Watching "+apiClient.BaseURL()+" (Ctrl+C to stop)"))

	seen := 0
	err := apiClient.WatchNarrations(ctx, func(n models.Narration) error {
		fmt.Fprintf(out, "%s %s\n%s\n\n",
			defaultTheme.hintStyle().Render(n.Timestamp.Format("15:04:05")),
			defaultTheme.statusStyle().Render(n.EventType),
			defaultTheme.narrativeStyle().Render(n.Narrative))
		seen++
		if watchCount > 0 && seen >= watchCount {
			return errWatchDone
		}
		return nil
	})
	if errors.Is(err, errWatchDone) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
