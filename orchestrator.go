package tilerender

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

type OrchestratorOpts struct {
	Renderer RendererOpts

	// Writer produces the per-tile renderer configuration. When nil an
	// INIWriter targeting the job's scratch directory is used.
	Writer ConfigWriter

	Logger *log.Logger
}

// Orchestrator splits a render job into column tiles, runs one renderer
// process per tile and composites finished tiles into the output image.
//
// All mutation of the canvas and of the tile snapshots happens on a single
// event loop goroutine per job. The read accessors may be called from any
// goroutine.
type Orchestrator struct {
	opts       OrchestratorOpts
	logger     *log.Logger
	compositor *Compositor

	mu       sync.RWMutex
	job      RenderJobConfig
	jobID    string
	dir      string
	tiles    []TileDescriptor
	workers  []*RenderWorker
	snapshot bool
	started  bool
}

func NewOrchestrator(opts OrchestratorOpts) *Orchestrator {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Orchestrator{
		opts:       opts,
		logger:     opts.Logger.WithPrefix("orchestrator"),
		compositor: NewCompositor(opts.Logger),
	}
}

// Configure partitions the job, writes one renderer configuration per tile
// and prepares one worker per tile, replacing any previous job. No process
// is started. A configuration write failure aborts the whole job, removes
// its scratch directory and leaves the orchestrator unconfigured.
func (o *Orchestrator) Configure(job RenderJobConfig) error {
	job = job.withDefaults()
	if err := job.Validate(); err != nil {
		return err
	}

	var err error
	if job.Scene, err = filepath.Abs(job.Scene); err != nil {
		return err
	}
	if job.Output, err = filepath.Abs(job.Output); err != nil {
		return err
	}
	ext, err := FormatExtension(job.Format)
	if err != nil {
		return err
	}

	jobID := uuid.NewString()
	dir, err := filepath.Abs(filepath.Join(o.opts.Renderer.TempDir, jobID))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("%w: %v", ErrConfigWrite, err)
	}

	writer := o.opts.Writer
	if writer == nil {
		writer = INIWriter{Dir: dir, LibraryPaths: o.opts.Renderer.LibraryPaths}
	}

	tiles := Partition(job.Width, job.Height, job.Workers)
	workers := make([]*RenderWorker, len(tiles))
	for i := range tiles {
		tiles[i].OutputFile = filepath.Join(dir, fmt.Sprintf("tile%d%s", i, ext))

		configPath, err := writer.WriteConfig(job, tiles[i])
		if err != nil {
			var cwe *ConfigWriteError
			if !errors.As(err, &cwe) {
				err = &ConfigWriteError{Tile: i, Err: err}
			}
			o.abortConfigure(dir)
			return err
		}
		workers[i] = NewRenderWorker(o.opts.Renderer, configPath, tiles[i], o.opts.Logger)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.job = job
	o.jobID = jobID
	o.dir = dir
	o.tiles = tiles
	o.workers = workers
	o.snapshot = false
	o.started = false

	o.logger.Info("configured render job",
		"job", jobID,
		"size", fmt.Sprintf("%dx%d", job.Width, job.Height),
		"tiles", len(tiles))
	return nil
}

// abortConfigure drops the scratch directory of a job that failed to
// configure and forgets the previously configured job.
func (o *Orchestrator) abortConfigure(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		o.logger.Warn("failed to remove scratch directory", "dir", dir, "err", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.job = RenderJobConfig{}
	o.jobID = ""
	o.dir = ""
	o.tiles = nil
	o.workers = nil
	o.snapshot = false
	o.started = false
}

// Start launches every worker and returns without waiting for them. Events
// are delivered on the returned channel, which the caller must drain; it is
// closed after the final EventJobFinished. Cancelling ctx kills any renderer
// still running.
func (o *Orchestrator) Start(ctx context.Context, snapshot bool) (<-chan Event, error) {
	o.mu.Lock()
	if o.workers == nil {
		o.mu.Unlock()
		return nil, ErrNotConfigured
	}
	if o.started {
		o.mu.Unlock()
		return nil, ErrAlreadyStarted
	}
	o.started = true
	o.snapshot = snapshot
	for i := range o.tiles {
		o.tiles[i].Lines = 0
	}
	workers := o.workers
	output := o.job.Output
	o.mu.Unlock()

	o.compositor.BeginJob(output)

	in := make(chan Event, 2*len(workers))
	out := make(chan Event, 64)
	go o.loop(in, out, len(workers), snapshot)

	for _, w := range workers {
		w.Start(ctx, in)
	}
	return out, nil
}

func (o *Orchestrator) loop(in <-chan Event, out chan<- Event, remaining int, snapshot bool) {
	defer close(out)

	for remaining > 0 {
		ev := <-in

		switch ev.Kind {
		case EventTileFinished:
			remaining--
			err := o.compositor.ApplyTileFile(ev.Tile.OutputFile, ev.Tile.Rect())
			if err != nil {
				o.logger.Warn("skipping tile composite", "tile", ev.Tile.Index, "err", err)
			}
			o.update(ev.Tile)
			o.logger.Info("tile finished", "tile", ev.Tile.Index, "progress", o.Progress())
		case EventTileFailed:
			remaining--
			o.update(ev.Tile)
			o.logger.Error("tile failed", "tile", ev.Tile.Index, "state", ev.State, "err", ev.Err)
		default:
			o.update(ev.Tile)
		}

		ev.IsSnapshot = snapshot
		ev.Progress = o.Progress()
		out <- ev
	}

	o.logger.Info("render job finished", "progress", o.Progress(), "elapsed", o.ElapsedTimeString())
	out <- Event{
		Kind:       EventJobFinished,
		IsSnapshot: snapshot,
		Progress:   o.Progress(),
	}
}

func (o *Orchestrator) update(tile TileDescriptor) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if tile.Index >= 0 && tile.Index < len(o.tiles) {
		o.tiles[tile.Index] = tile
	}
}

// Progress is the aggregate percentage over all tiles, in [0,100].
func (o *Orchestrator) Progress() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return AggregateProgress(o.tiles, o.job.Height)
}

// ElapsedTimeString reports the slowest render time as "(HH:MM:SS)".
func (o *Orchestrator) ElapsedTimeString() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return MaxElapsed(o.tiles).String()
}

// ParseTimeString reports the slowest scene parse time as "(HH:MM:SS)".
func (o *Orchestrator) ParseTimeString() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return MaxParseElapsed(o.tiles).String()
}

// StatusLine summarises the job for a status bar. Until any scanline has
// been rendered the renderers are still parsing, so the parse time is shown.
func (o *Orchestrator) StatusLine() string {
	progress := o.Progress()
	if progress == 0 {
		return "Initializing render... " + o.ParseTimeString()
	}
	return fmt.Sprintf("Rendering: %3d%% %s", progress, o.ElapsedTimeString())
}

// Tiles returns snapshots of every tile of the current job.
func (o *Orchestrator) Tiles() []TileDescriptor {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return append([]TileDescriptor(nil), o.tiles...)
}

func (o *Orchestrator) Job() RenderJobConfig {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.job
}

func (o *Orchestrator) JobID() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.jobID
}

// ScratchDir holds the job's configuration artifacts and tile images.
func (o *Orchestrator) ScratchDir() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.dir
}

// Results reports the terminal state of every worker.
func (o *Orchestrator) Results() []TileResult {
	o.mu.RLock()
	workers := o.workers
	o.mu.RUnlock()

	results := make([]TileResult, len(workers))
	for i, w := range workers {
		tile := w.Tile()
		results[i] = TileResult{
			Index:       tile.Index,
			StartColumn: tile.StartColumn,
			EndColumn:   tile.EndColumn,
			State:       w.State().String(),
			ExitCode:    w.ExitCode(),
			Lines:       tile.Lines,
			Elapsed:     tile.Elapsed.String(),
		}
	}
	return results
}
