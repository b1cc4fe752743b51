package tilerender

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

type WorkerState int

const (
	WorkerIdle WorkerState = iota
	WorkerStarting
	WorkerRunning
	WorkerFinished
	WorkerCrashed
	WorkerFailedToStart
)

func (s WorkerState) String() string {
	switch s {
	case WorkerIdle:
		return "idle"
	case WorkerStarting:
		return "starting"
	case WorkerRunning:
		return "running"
	case WorkerFinished:
		return "finished"
	case WorkerCrashed:
		return "crashed"
	case WorkerFailedToStart:
		return "failed-to-start"
	}
	return "unknown"
}

func (s WorkerState) Terminal() bool {
	return s == WorkerFinished || s == WorkerCrashed || s == WorkerFailedToStart
}

const readChunkSize = 4096

// RenderWorker runs one renderer process for one tile. It is single use.
type RenderWorker struct {
	executable string
	workDir    string
	configPath string
	timeout    time.Duration
	logger     *log.Logger

	// emitMu keeps output events from the stdout and stderr readers in the
	// order their snapshots were taken.
	emitMu sync.Mutex

	mu       sync.Mutex
	tile     TileDescriptor
	state    WorkerState
	exitCode int
}

func NewRenderWorker(opts RendererOpts, configPath string, tile TileDescriptor, logger *log.Logger) *RenderWorker {
	if logger == nil {
		logger = log.Default()
	}
	return &RenderWorker{
		executable: opts.Executable,
		workDir:    opts.WorkDir,
		configPath: configPath,
		timeout:    opts.Timeout,
		logger:     logger.WithPrefix("worker").With("tile", tile.Index),
		tile:       tile,
		exitCode:   -1,
	}
}

func (w *RenderWorker) Tile() TileDescriptor {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tile
}

func (w *RenderWorker) State() WorkerState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// ExitCode is the renderer's exit status, or -1 if it never exited normally.
func (w *RenderWorker) ExitCode() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.exitCode
}

// Start launches the renderer in the background and returns immediately.
// Every event, including launch failure, is sent on events. The last event
// sent is always EventTileFinished or EventTileFailed.
func (w *RenderWorker) Start(ctx context.Context, events chan<- Event) {
	w.mu.Lock()
	if w.state != WorkerIdle {
		w.mu.Unlock()
		w.logger.Warn("worker already started", "state", w.state)
		return
	}
	w.state = WorkerStarting
	w.mu.Unlock()

	go w.run(ctx, events)
}

func (w *RenderWorker) run(ctx context.Context, events chan<- Event) {
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, w.executable, w.configPath)
	cmd.Dir = w.workDir
	setProcessGroup(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		w.fail(WorkerFailedToStart, err, events)
		return
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		w.fail(WorkerFailedToStart, err, events)
		return
	}

	if err := cmd.Start(); err != nil {
		w.fail(WorkerFailedToStart, err, events)
		return
	}

	w.mu.Lock()
	w.state = WorkerRunning
	w.mu.Unlock()
	w.logger.Debug("renderer started", "pid", cmd.Process.Pid, "config", w.configPath)

	var wg sync.WaitGroup
	wg.Add(2)
	go w.drain(stdout, false, events, &wg)
	go w.drain(stderr, true, events, &wg)
	wg.Wait()

	err = cmd.Wait()
	ps := cmd.ProcessState
	if ps == nil || !ps.Exited() {
		if err == nil {
			err = errors.New("renderer terminated abnormally")
		}
		w.fail(WorkerCrashed, err, events)
		return
	}

	w.mu.Lock()
	w.tile.Lines = w.tile.EndRow
	w.state = WorkerFinished
	w.exitCode = ps.ExitCode()
	tile := w.tile
	w.mu.Unlock()

	if ps.ExitCode() != 0 {
		w.logger.Warn("renderer exited with non-zero status", "code", ps.ExitCode())
	} else {
		w.logger.Debug("renderer finished")
	}

	events <- Event{
		Kind:     EventTileFinished,
		Tile:     tile,
		State:    WorkerFinished,
		ExitCode: ps.ExitCode(),
	}
}

func (w *RenderWorker) drain(r io.Reader, isError bool, events chan<- Event, wg *sync.WaitGroup) {
	defer wg.Done()

	buf := make([]byte, readChunkSize)
	var partial string
	for {
		n, err := r.Read(buf)
		if n > 0 {
			text := string(buf[:n])

			// A marker may straddle two reads, so the unterminated end of the
			// previous read is parsed again together with this one.
			scan := partial + text
			partial = trailingPartialLine(scan)

			w.emitMu.Lock()
			w.mu.Lock()
			w.tile = ParseProgress(scan, w.tile)
			tile := w.tile
			w.mu.Unlock()

			events <- Event{
				Kind:    EventTileOutput,
				Tile:    tile,
				Text:    text,
				IsError: isError,
				State:   WorkerRunning,
			}
			w.emitMu.Unlock()
		}

		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				w.logger.Warn("failed to read renderer output", "stderr", isError, "err", err)
			}
			return
		}
	}
}

// trailingPartialLine returns the text after the last line break, bounded to
// one read.
func trailingPartialLine(text string) string {
	if i := strings.LastIndexAny(text, "\r\n"); i >= 0 {
		text = text[i+1:]
	}
	if len(text) > readChunkSize {
		text = text[len(text)-readChunkSize:]
	}
	return text
}

func (w *RenderWorker) fail(state WorkerState, err error, events chan<- Event) {
	w.mu.Lock()
	w.state = state
	tile := w.tile
	w.mu.Unlock()

	w.logger.Error("renderer failed", "state", state, "err", err)

	events <- Event{
		Kind:     EventTileFailed,
		Tile:     tile,
		State:    state,
		ExitCode: -1,
		Err:      err,
	}
}
