package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/raphaelgruber/brogue-dm/internal/client"
	"github.com/raphaelgruber/brogue-dm/internal/models"
)

// eventTimeout bounds a single /api/event round trip.
const eventTimeout = 30 * time.Second

// maxShownResults is how many narrations stay visible under the progress bar.
const maxShownResults = 4

// Theme holds the color scheme for CLI output.
type Theme struct {
	Status     lipgloss.Color
	Success    lipgloss.Color
	Error      lipgloss.Color
	Hint       lipgloss.Color
	Narrative  lipgloss.Color
	ProgressBg lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:     lipgloss.Color("#5FAFD7"), // light blue
	Success:    lipgloss.Color("#00D787"), // green
	Error:      lipgloss.Color("#FF005F"), // red
	Hint:       lipgloss.Color("#6C6C6C"), // dim gray
	Narrative:  lipgloss.Color("#D7AF5F"), // parchment
	ProgressBg: lipgloss.Color("#3A3A3A"), // dark gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

func (t Theme) narrativeStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Narrative).Italic(true)
}

func (t Theme) headingStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status).Bold(true)
}

// playtestResult is the outcome of sending one adventure event.
type playtestResult struct {
	Event     models.Event
	Narrative string
	Err       error
}

// sendAdventureEvent posts ev and captures the narrative, if any.
func sendAdventureEvent(ctx context.Context, c *client.Client, e models.Event) playtestResult {
	ctx, cancel := context.WithTimeout(ctx, eventTimeout)
	defer cancel()

	resp, err := c.SendEvent(ctx, e)
	if err != nil {
		return playtestResult{Event: e, Err: err}
	}
	return playtestResult{Event: e, Narrative: resp.Narrative}
}

// eventSentMsg carries the result of one event round trip.
type eventSentMsg struct {
	index  int
	result playtestResult
}

// nextEventMsg triggers sending the event at index.
type nextEventMsg int

// playtestModel is the bubbletea model for an adventure replay.
type playtestModel struct {
	ctx       context.Context
	client    *client.Client
	adventure Adventure
	wait      time.Duration
	results   []playtestResult
	progress  progress.Model
	theme     Theme
	done      bool
	quitting  bool
}

func newPlaytestModel(ctx context.Context, c *client.Client, adv Adventure, wait time.Duration) playtestModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)

	return playtestModel{
		ctx:       ctx,
		client:    c,
		adventure: adv,
		wait:      wait,
		progress:  prog,
		theme:     defaultTheme,
	}
}

// Init sends the first event.
func (m playtestModel) Init() tea.Cmd {
	return tea.Batch(
		m.sendEvent(0),
		m.progress.Init(),
	)
}

// Update handles messages and returns the updated model.
func (m playtestModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case nextEventMsg:
		return m, m.sendEvent(int(msg))

	case eventSentMsg:
		m.results = append(m.results, msg.result)
		next := msg.index + 1
		if next >= len(m.adventure.Events) {
			m.done = true
			return m, tea.Quit
		}
		return m, tea.Tick(m.wait, func(time.Time) tea.Msg {
			return nextEventMsg(next)
		})

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m playtestModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m playtestModel) renderContent() string {
	var b strings.Builder
	b.WriteString(m.theme.headingStyle().Render("⚔ "+m.adventure.Name) + "\n\n")

	total := len(m.adventure.Events)
	pct := float64(len(m.results)) / float64(total)
	status := m.theme.statusStyle().Render("[playing]")
	if m.done {
		status = m.theme.completedStyle().Render("[complete]")
	}
	fmt.Fprintf(&b, "%s %s %d/%d events\n\n", status, m.progress.ViewAs(pct), len(m.results), total)

	start := 0
	if len(m.results) > maxShownResults {
		start = len(m.results) - maxShownResults
	}
	for i := start; i < len(m.results); i++ {
		writeResult(&b, m.theme, i, total, m.results[i])
	}

	switch {
	case m.quitting:
		b.WriteString(m.theme.hintStyle().Render("Playtest stopped.") + "\n")
	case m.done:
		b.WriteString(m.theme.completedStyle().Render("✓ Adventure complete") + "\n")
	default:
		b.WriteString(m.theme.hintStyle().Render("Press q to stop") + "\n")
	}
	return b.String()
}

// sendEvent posts the event at index without blocking Update().
func (m playtestModel) sendEvent(index int) tea.Cmd {
	e := m.adventure.Events[index]
	return func() tea.Msg {
		return eventSentMsg{index: index, result: sendAdventureEvent(m.ctx, m.client, e)}
	}
}

// writeResult renders one event outcome the same way in both output modes.
func writeResult(w io.Writer, theme Theme, index, total int, r playtestResult) {
	fmt.Fprintf(w, "%s\n", theme.statusStyle().Render(fmt.Sprintf("Event %d/%d: %s", index+1, total, r.Event.Type)))
	switch {
	case r.Err != nil:
		fmt.Fprintf(w, "%s\n\n", theme.errorStyle().Render("✗ "+r.Err.Error()))
	case r.Narrative != "":
		fmt.Fprintf(w, "%s\n\n", theme.narrativeStyle().Render(r.Narrative))
	default:
		fmt.Fprintf(w, "%s\n\n", theme.hintStyle().Render("(recorded)"))
	}
}

// RunPlaytestProgress runs the interactive replay UI for one adventure.
// Returns the results received before completion or Ctrl+C.
func RunPlaytestProgress(ctx context.Context, c *client.Client, adv Adventure, wait time.Duration) ([]playtestResult, error) {
	model := newPlaytestModel(ctx, c, adv, wait)
	p := tea.NewProgram(model, tea.WithContext(ctx))

	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("progress UI error: %w", err)
	}

	if m, ok := finalModel.(playtestModel); ok {
		return m.results, nil
	}
	return nil, nil
}
