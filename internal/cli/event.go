package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/brogue-dm/internal/models"
)

var (
	eventData    []string
	eventContext []string
)

var eventCmd = &cobra.Command{
	Use:   "event TYPE",
	Short: "Send a single game event",
	Long: `Send one game event to the server and print the narration, if any.

Values are parsed as integers, floats or booleans when possible and fall
back to strings.

Examples:
  dm event MONSTER_ENCOUNTERED --data monsterName=ogre --data isFirstEncounter=true
  dm event NEW_LEVEL -d depth=3 -d environmentType=cave -c playerLevel=4
  dm event PLAYER_DIED -d killedBy=dragon -d maxDepth=12`,
	Args: cobra.ExactArgs(1),
	RunE: runEvent,
}

func init() {
	eventCmd.Flags().StringArrayVarP(&eventData, "data", "d", nil, "event data as key=value (repeatable)")
	eventCmd.Flags().StringArrayVarP(&eventContext, "context", "c", nil, "context as key=value (repeatable)")
}

func runEvent(cmd *cobra.Command, args []string) error {
	data, err := parseKV(eventData)
	if err != nil {
		return fmt.Errorf("parse --data: %w", err)
	}
	ctxData, err := parseKV(eventContext)
	if err != nil {
		return fmt.Errorf("parse --context: %w", err)
	}

	e := models.Event{
		Type:    strings.ToUpper(args[0]),
		Data:    data,
		Context: ctxData,
	}
	if !models.IsKnownEventType(e.Type) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s is not a known event type (%s)\n",
			e.Type, strings.Join(models.KnownEventTypes, ", "))
	}

	resp, err := apiClient.SendEvent(cmd.Context(), e)
	if err != nil {
		return fmt.Errorf("send event: %w", err)
	}

	out := cmd.OutOrStdout()
	if resp.Narrative != "" {
		fmt.Fprintln(out, defaultTheme.narrativeStyle().Render(resp.Narrative))
		return nil
	}
	fmt.Fprintln(out, defaultTheme.hintStyle().Render(resp.Message))
	return nil
}

// parseKV turns key=value pairs into an event map.
func parseKV(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("expected key=value, got %q", p)
		}
		out[k] = parseScalar(v)
	}
	return out, nil
}

func parseScalar(s string) any {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}

// formatKV renders a map as sorted key=value pairs.
func formatKV(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + models.FormatValue(m[k])
	}
	return strings.Join(parts, " ")
}
