package build

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/b1naryth1ef/tilerender"
	tea "github.com/charmbracelet/bubbletea"
)

const barWidth = 30

type eventMsg tilerender.Event

type eventsClosedMsg struct{}

// progressModel shows one progress bar per tile plus the job status line.
type progressModel struct {
	events <-chan tilerender.Event
	orch   *tilerender.Orchestrator
	cancel context.CancelFunc

	tiles    []tilerender.TileDescriptor
	states   []tilerender.WorkerState
	lastLine string
	done     bool
	aborted  bool
}

func newProgressModel(events <-chan tilerender.Event, orch *tilerender.Orchestrator, cancel context.CancelFunc) progressModel {
	tiles := orch.Tiles()
	states := make([]tilerender.WorkerState, len(tiles))
	for i := range states {
		states[i] = tilerender.WorkerRunning
	}
	return progressModel{
		events: events,
		orch:   orch,
		cancel: cancel,
		tiles:  tiles,
		states: states,
	}
}

func waitForEvent(events <-chan tilerender.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m progressModel) Init() tea.Cmd {
	return waitForEvent(m.events)
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			// Keep draining events until the killed renderers report back.
			m.aborted = true
			m.cancel()
		}
		return m, nil
	case eventMsg:
		ev := tilerender.Event(msg)
		if ev.Kind == tilerender.EventJobFinished {
			return m, waitForEvent(m.events)
		}
		if ev.Tile.Index >= 0 && ev.Tile.Index < len(m.tiles) {
			m.tiles[ev.Tile.Index] = ev.Tile
			switch ev.Kind {
			case tilerender.EventTileFinished, tilerender.EventTileFailed:
				m.states[ev.Tile.Index] = ev.State
			}
		}
		if ev.Kind == tilerender.EventTileOutput {
			if line := lastLine(ev.Text); line != "" {
				m.lastLine = line
			}
		}
		return m, waitForEvent(m.events)
	case eventsClosedMsg:
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m progressModel) View() string {
	var b strings.Builder

	job := m.orch.Job()
	b.WriteString(styleTitle.Render("rendering "+job.Name) + " " +
		styleDim.Render(fmt.Sprintf("%dx%d", job.Width, job.Height)) + "\n\n")

	for i, tile := range m.tiles {
		ratio := 0.0
		if tile.EndRow > 0 {
			ratio = float64(min(max(tile.Lines, 0), tile.EndRow)) / float64(tile.EndRow)
		}
		filled := int(ratio * barWidth)
		bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

		var state string
		switch m.states[i] {
		case tilerender.WorkerFinished:
			state = styleSuccess.Render(iconSuccess)
		case tilerender.WorkerCrashed, tilerender.WorkerFailedToStart:
			state = styleError.Render(iconError)
		default:
			state = styleInfo.Render(iconInfo)
		}

		fmt.Fprintf(&b, "%s tile %-3d %s %s %s\n",
			state,
			tile.Index,
			styleNumber.Render(bar),
			styleDim.Render(fmt.Sprintf("%5d/%-5d", tile.Lines, tile.EndRow)),
			styleDim.Render(tile.Elapsed.String()))
	}

	b.WriteString("\n" + m.orch.StatusLine() + "\n")
	if m.lastLine != "" {
		b.WriteString(styleDim.Render(m.lastLine) + "\n")
	}
	if m.aborted && !m.done {
		b.WriteString(styleError.Render("cancelling, waiting for renderers to exit") + "\n")
	}
	return b.String()
}

// lastLine returns the last non-empty line of renderer output. Renderers
// redraw their progress line with carriage returns.
func lastLine(text string) string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == '\n' || r == '\r'
	})
	for i := len(fields) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(fields[i]); line != "" {
			return line
		}
	}
	return ""
}

func runTUI(events <-chan tilerender.Event, orch *tilerender.Orchestrator, cancel context.CancelFunc, out io.Writer) error {
	p := tea.NewProgram(newProgressModel(events, orch, cancel), tea.WithOutput(out))
	_, err := p.Run()
	if err != nil {
		cancel()
		for range events {
		}
	}
	return err
}
