package cli

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	defaultEventWait = 3 * time.Second
	fasterEventWait  = time.Second
)

var (
	playtestAdventure string
	playtestAll       bool
	playtestFaster    bool
	playtestWait      time.Duration
	playtestList      bool
)

var playtestCmd = &cobra.Command{
	Use:   "playtest",
	Short: "Replay a scripted adventure against the server",
	Long: `Replay one of the built-in adventures, event by event, and show what the
Dungeon Master narrates. Without --adventure a random adventure is chosen.

Examples:
  dm playtest
  dm playtest --adventure "The Goblin Caves" --faster
  dm playtest --all --wait 500ms
  dm playtest --list`,
	RunE: runPlaytest,
}

func init() {
	playtestCmd.Flags().StringVarP(&playtestAdventure, "adventure", "a", "", "adventure name")
	playtestCmd.Flags().BoolVar(&playtestAll, "all", false, "replay every adventure in order")
	playtestCmd.Flags().BoolVar(&playtestFaster, "faster", false, "wait 1s between events instead of 3s")
	playtestCmd.Flags().DurationVar(&playtestWait, "wait", defaultEventWait, "pause between events")
	playtestCmd.Flags().BoolVar(&playtestList, "list", false, "list the built-in adventures")
}

func runPlaytest(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if playtestList {
		for _, a := range Adventures {
			fmt.Fprintf(out, "%s (%d events)\n", a.Name, len(a.Events))
		}
		return nil
	}

	adventures, err := selectAdventures()
	if err != nil {
		return err
	}

	wait := playtestWait
	if playtestFaster && !cmd.Flags().Changed("wait") {
		wait = fasterEventWait
	}

	ctx := cmd.Context()

	health, err := apiClient.Health(ctx)
	if err != nil {
		return fmt.Errorf("server not reachable at %s (is dm-server running?): %w", apiClient.BaseURL(), err)
	}
	fmt.Fprintf(out, "%s\n", defaultTheme.completedStyle().Render("Server is running! Status: "+health.Status))
	fmt.Fprintf(out, "Session ID: %s\n\n", health.SessionID)

	failed := 0
	for _, adv := range adventures {
		var results []playtestResult
		if isInteractive(out) {
			results, err = RunPlaytestProgress(ctx, apiClient, adv, wait)
			if err != nil {
				return err
			}
		} else {
			results = playAdventure(ctx, out, adv, wait)
		}
		for _, r := range results {
			if r.Err != nil {
				failed++
			}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	fmt.Fprintf(out, "%s\n", defaultTheme.hintStyle().Render("Log is available at: "+apiClient.BaseURL()+"/api/logs/current"))
	if failed > 0 {
		return fmt.Errorf("%d events failed", failed)
	}
	return nil
}

func selectAdventures() ([]Adventure, error) {
	switch {
	case playtestAll:
		return Adventures, nil
	case playtestAdventure != "":
		a, err := FindAdventure(playtestAdventure)
		if err != nil {
			return nil, err
		}
		return []Adventure{a}, nil
	default:
		return []Adventure{Adventures[rand.IntN(len(Adventures))]}, nil
	}
}

// playAdventure replays adv with plain line output. Failed events are
// reported and the replay continues.
func playAdventure(ctx context.Context, out io.Writer, adv Adventure, wait time.Duration) []playtestResult {
	fmt.Fprintf(out, "%s\n\n", defaultTheme.headingStyle().Render("Starting adventure: "+adv.Name))

	results := make([]playtestResult, 0, len(adv.Events))
	for i, e := range adv.Events {
		if i > 0 && !sleepCtx(ctx, wait) {
			break
		}
		r := sendAdventureEvent(ctx, apiClient, e)
		if verbose {
			fmt.Fprintf(out, "Data: %s\n", formatKV(e.Data))
		}
		writeResult(out, defaultTheme, i, len(adv.Events), r)
		results = append(results, r)
	}

	fmt.Fprintf(out, "%s\n\n", defaultTheme.completedStyle().Render("==== Adventure Complete! ===="))
	return results
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// isInteractive reports whether w is a terminal.
func isInteractive(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
