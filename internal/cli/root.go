// Package cli provides the command-line interface for the Dungeon Master.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/raphaelgruber/brogue-dm/internal/client"
	"github.com/raphaelgruber/brogue-dm/internal/config"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose   bool
	serverURL string

	// API client, created before every command runs
	apiClient *client.Client
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "dm",
	Short: "Brogue Dungeon Master client",
	Long: `dm talks to a running Dungeon Master server.

Replay scripted adventures, send single game events, tune the narrator's
personality and inspect what the Dungeon Master remembers.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		url := serverURL
		if url == "" {
			url = config.Load().ServerURL
		}
		apiClient = client.New(url)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "", "server URL (default $DM_SERVER_URL or http://localhost:3001)")

	rootCmd.AddCommand(playtestCmd)
	rootCmd.AddCommand(eventCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(knowledgeCmd)
	rootCmd.AddCommand(recentCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(logCmd)
}

