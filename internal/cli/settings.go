package cli

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/brogue-dm/internal/models"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the narrator personality",
	Long: `Show the active narrator settings, or change them with a subcommand.

Examples:
  dm settings
  dm settings apply galadriel
  dm settings set verbosity 8
  dm settings save my-preset
  dm settings add-phrase "Fate is fickle."
  dm settings rm-phrase 0
  dm settings reset`,
	Args: cobra.NoArgs,
	RunE: runSettingsShow,
}

var settingsApplyCmd = &cobra.Command{
	Use:   "apply PRESET",
	Short: "Apply a built-in or custom preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateSettings(cmd, models.SettingsRequest{Action: models.ActionApplyPreset, PresetName: args[0]})
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set ATTRIBUTE VALUE",
	Short: "Set a personality attribute (clamped to 1-10)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("attribute value must be an integer: %q", args[1])
		}
		return updateSettings(cmd, models.SettingsRequest{
			Action:         models.ActionSetAttribute,
			AttributeName:  args[0],
			AttributeValue: v,
		})
	},
}

var settingsSaveCmd = &cobra.Command{
	Use:   "save NAME",
	Short: "Save the current settings as a custom preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateSettings(cmd, models.SettingsRequest{Action: models.ActionSavePreset, PresetName: args[0]})
	},
}

var settingsDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete a custom preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateSettings(cmd, models.SettingsRequest{Action: models.ActionDeletePreset, PresetName: args[0]})
	},
}

var settingsAddPhraseCmd = &cobra.Command{
	Use:   "add-phrase PHRASE",
	Short: "Add a signature phrase",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateSettings(cmd, models.SettingsRequest{Action: models.ActionAddPhrase, Phrase: strings.Join(args, " ")})
	},
}

var settingsRemovePhraseCmd = &cobra.Command{
	Use:   "rm-phrase INDEX",
	Short: "Remove a signature phrase by index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("phrase index must be an integer: %q", args[0])
		}
		return updateSettings(cmd, models.SettingsRequest{Action: models.ActionRemovePhrase, PhraseIndex: &idx})
	},
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the default preset",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateSettings(cmd, models.SettingsRequest{Action: models.ActionResetDefault})
	},
}

var settingsPreviewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Show a sample of how the narrator currently sounds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := apiClient.Preview(cmd.Context())
		if err != nil {
			return fmt.Errorf("get preview: %w", err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Preset: %s\n\n", resp.PresetName)
		fmt.Fprintln(out, defaultTheme.narrativeStyle().Render(resp.Preview))
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsApplyCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsSaveCmd)
	settingsCmd.AddCommand(settingsDeleteCmd)
	settingsCmd.AddCommand(settingsAddPhraseCmd)
	settingsCmd.AddCommand(settingsRemovePhraseCmd)
	settingsCmd.AddCommand(settingsResetCmd)
	settingsCmd.AddCommand(settingsPreviewCmd)
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	resp, err := apiClient.Settings(cmd.Context())
	if err != nil {
		return fmt.Errorf("get settings: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Preset: %s\n", defaultTheme.headingStyle().Render(resp.PresetName))
	printSettings(out, resp)
	if len(resp.AvailablePresets) > 0 {
		fmt.Fprintf(out, "\nAvailable presets: %s\n", strings.Join(resp.AvailablePresets, ", "))
	}
	return nil
}

func updateSettings(cmd *cobra.Command, req models.SettingsRequest) error {
	resp, err := apiClient.UpdateSettings(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, defaultTheme.completedStyle().Render("✓ "+resp.Message))
	fmt.Fprintf(out, "Preset: %s\n", resp.CurrentPreset)
	printSettings(out, resp)
	return nil
}

func printSettings(w io.Writer, resp *models.SettingsResponse) {
	names := make([]string, 0, len(resp.Attributes))
	for name := range resp.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "\nAttributes:")
	for _, name := range names {
		v := resp.Attributes[name]
		fmt.Fprintf(w, "  %-11s %2d %s\n", name, v, strings.Repeat("█", max(v, 0)))
	}

	fmt.Fprintln(w, "\nSignature phrases:")
	if len(resp.SignaturePhrases) == 0 {
		fmt.Fprintln(w, defaultTheme.hintStyle().Render("  (none)"))
	}
	for i, p := range resp.SignaturePhrases {
		fmt.Fprintf(w, "  [%d] %s\n", i, p)
	}
}
