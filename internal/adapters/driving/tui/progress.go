// Package tui renders a harvest progress stream as an interactive
// terminal progress bar. It follows the Elm architecture via Bubbletea.
package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ferrous-labs/imgcrate-cli/internal/core/domain"
)

var (
	stageStyle = lipgloss.NewStyle().Bold(true)
	itemStyle  = lipgloss.NewStyle().Faint(true)
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// stageLabels are the human-readable stage names.
var stageLabels = map[domain.Stage]string{
	domain.StageValidating:   "Validating URL",
	domain.StageFetchingPage: "Fetching page",
	domain.StageAnalyzing:    "Analyzing markup",
	domain.StageDiscovering:  "Discovering assets",
	domain.StageDownloading:  "Downloading",
	domain.StagePackaging:    "Packaging archive",
	domain.StageDone:         "Done",
	domain.StageFailed:       "Failed",
}

// streamClosed signals that the producer closed the event channel.
type streamClosed struct{}

// Model consumes a progress event stream and renders a progress bar with
// the current stage and item. It implements tea.Model.
type Model struct {
	events <-chan domain.ProgressEvent

	bar       progress.Model
	stage     domain.Stage
	item      string
	completed int
	total     int

	final    domain.ProgressEvent
	sawFinal bool
}

// NewModel creates a progress model reading from events.
func NewModel(events <-chan domain.ProgressEvent) Model {
	return Model{
		events: events,
		bar:    progress.New(progress.WithDefaultGradient()),
	}
}

// Init starts listening for events.
func (m Model) Init() tea.Cmd {
	return waitForEvent(m.events)
}

// Update handles events, bar animation frames and key presses.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case domain.ProgressEvent:
		m.stage = msg.Stage
		m.item = msg.Item
		m.completed = msg.Completed
		m.total = msg.Total
		if msg.Terminal() {
			m.final = msg
			m.sawFinal = true
		}
		return m, tea.Batch(
			m.bar.SetPercent(float64(msg.Percent)/100),
			waitForEvent(m.events),
		)

	case streamClosed:
		return m, tea.Quit

	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.bar.Width = msg.Width - 4
	}
	return m, nil
}

// View renders the stage line, the bar and the current item.
func (m Model) View() string {
	var b strings.Builder

	label := stageLabels[m.stage]
	if label == "" {
		label = string(m.stage)
	}
	if m.stage == domain.StageFailed {
		b.WriteString(failStyle.Render(label))
	} else {
		b.WriteString(stageStyle.Render(label))
	}
	if m.total > 0 && m.stage == domain.StageDownloading {
		b.WriteString(fmt.Sprintf(" (%d/%d)", m.completed, m.total))
	}
	b.WriteString("\n")
	b.WriteString(m.bar.View())
	if m.item != "" {
		b.WriteString("\n")
		b.WriteString(itemStyle.Render(m.item))
	}
	b.WriteString("\n")
	return b.String()
}

// Final returns the terminal event, if one was seen.
func (m Model) Final() (domain.ProgressEvent, bool) {
	return m.final, m.sawFinal
}

// waitForEvent reads the next progress event off the channel.
func waitForEvent(events <-chan domain.ProgressEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return streamClosed{}
		}
		return ev
	}
}

// Run displays the progress bar until the stream terminates and returns
// the terminal event.
func Run(events <-chan domain.ProgressEvent) (domain.ProgressEvent, error) {
	p := tea.NewProgram(NewModel(events))
	out, err := p.Run()
	if err != nil {
		return domain.ProgressEvent{}, err
	}

	final, ok := out.(Model).Final()
	if !ok {
		return domain.ProgressEvent{}, errors.New("harvest interrupted")
	}
	return final, nil
}
