package build

import (
	"fmt"
	"io"
	"strconv"

	"github.com/b1naryth1ef/tilerender"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	colorCyan  = lipgloss.Color("36")
	colorGreen = lipgloss.Color("35")
	colorRed   = lipgloss.Color("167")
	colorGray  = lipgloss.Color("245")
	colorDim   = lipgloss.Color("240")

	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
	styleNumber  = lipgloss.NewStyle().Foreground(colorCyan)
	styleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleError   = lipgloss.NewStyle().Foreground(colorRed)
	styleInfo    = lipgloss.NewStyle().Foreground(colorGray)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconInfo    = "›"
)

// printEvents writes one status line per tile completion or failure until
// the event channel closes. Raw renderer output is left to debug logging.
func printEvents(events <-chan tilerender.Event, orch *tilerender.Orchestrator, w io.Writer) {
	job := orch.Job()
	fmt.Fprintf(w, "%s %s %s\n",
		styleInfo.Render(iconInfo),
		styleTitle.Render("rendering "+job.Name),
		styleDim.Render(fmt.Sprintf("%dx%d, %d tiles", job.Width, job.Height, job.Workers)))

	for ev := range events {
		switch ev.Kind {
		case tilerender.EventTileFinished:
			fmt.Fprintf(w, "%s tile %d finished %s %s %s\n",
				styleSuccess.Render(iconSuccess),
				ev.Tile.Index,
				styleDim.Render(fmt.Sprintf("[%d-%d]", ev.Tile.StartColumn, ev.Tile.EndColumn)),
				styleNumber.Render(fmt.Sprintf("%3d%%", ev.Progress)),
				styleDim.Render(orch.ElapsedTimeString()))
		case tilerender.EventTileFailed:
			fmt.Fprintf(w, "%s tile %d %s: %v\n",
				styleError.Render(iconError),
				ev.Tile.Index,
				ev.State,
				ev.Err)
		case tilerender.EventJobFinished:
			fmt.Fprintf(w, "%s %s %s\n",
				styleInfo.Render(iconInfo),
				orch.StatusLine(),
				styleDim.Render(job.Output))
		}
	}
}

// TileTable renders the partition as a table.
func TileTable(tiles []tilerender.TileDescriptor) string {
	rows := make([][]string, 0, len(tiles))
	for _, tile := range tiles {
		rows = append(rows, []string{
			strconv.Itoa(tile.Index),
			strconv.Itoa(tile.StartColumn),
			strconv.Itoa(tile.EndColumn),
			strconv.Itoa(tile.Columns()),
			fmt.Sprintf("%d-%d", tile.StartRow, tile.EndRow),
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleDim).
		Headers("tile", "start", "end", "columns", "rows").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleTitle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		String()
}
