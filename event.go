package tilerender

type EventKind int

const (
	// EventTileOutput carries a chunk of renderer stdout or stderr.
	EventTileOutput EventKind = iota
	// EventTileFinished fires once per tile whose renderer exited normally,
	// after the tile has been composited into the output image.
	EventTileFinished
	// EventTileFailed fires when a renderer could not be started or crashed.
	EventTileFailed
	// EventJobFinished fires once after every worker reached a terminal state.
	EventJobFinished
)

func (k EventKind) String() string {
	switch k {
	case EventTileOutput:
		return "output"
	case EventTileFinished:
		return "tile-finished"
	case EventTileFailed:
		return "tile-failed"
	case EventJobFinished:
		return "job-finished"
	}
	return "unknown"
}

// Event is delivered on the channel returned by Orchestrator.Start. Tile is a
// snapshot taken when the event was produced.
type Event struct {
	Kind    EventKind
	Tile    TileDescriptor
	Text    string
	IsError bool

	State    WorkerState
	ExitCode int
	Err      error

	IsSnapshot bool
	Progress   int
}
