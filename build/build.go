package build

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/b1naryth1ef/tilerender"
	"github.com/charmbracelet/log"
)

type BuildOpts struct {
	// Snapshot renders the low resolution preview of each job instead.
	Snapshot bool
	// ThumbnailSize bounds the thumbnail written next to snapshots.
	ThumbnailSize int
	// TUI shows an interactive progress view instead of plain status lines.
	TUI bool

	Out    io.Writer
	Logger *log.Logger
}

func ensureDirectory(path string) error {
	if path == "" {
		return nil
	}
	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		err = os.MkdirAll(path, os.ModePerm)
		if err != nil {
			return err
		}
	} else {
		return err
	}
	return nil
}

// Build renders every job in order using orch, writing a build metadata file
// next to each output image. It stops at the first job that can't be
// configured; tiles that fail only degrade their job.
func Build(ctx context.Context, orch *tilerender.Orchestrator, jobs []tilerender.RenderJobConfig, opts BuildOpts) error {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	for _, job := range jobs {
		meta, err := RunJob(ctx, orch, job, opts)
		if err != nil {
			return fmt.Errorf("job %q: %w", job.Name, err)
		}

		opts.Logger.Info("finished rendering",
			"job", job.Name,
			"duration", time.Duration(meta.DurationMs)*time.Millisecond,
			"progress", meta.Progress)

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}

// RunJob renders a single job and blocks until every tile has finished or
// failed.
func RunJob(ctx context.Context, orch *tilerender.Orchestrator, job tilerender.RenderJobConfig, opts BuildOpts) (*tilerender.RenderMeta, error) {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Snapshot {
		job = job.Snapshot()
	}

	err := ensureDirectory(filepath.Dir(job.Output))
	if err != nil {
		return nil, err
	}

	err = orch.Configure(job)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	events, err := orch.Start(runCtx, opts.Snapshot)
	if err != nil {
		return nil, err
	}

	if opts.TUI {
		err = runTUI(events, orch, cancel, opts.Out)
	} else {
		printEvents(events, orch, opts.Out)
	}
	if err != nil {
		return nil, err
	}

	configured := orch.Job()
	meta := &tilerender.RenderMeta{
		JobID:      orch.JobID(),
		Job:        configured,
		StartedAt:  start,
		DurationMs: time.Since(start).Milliseconds(),
		Progress:   orch.Progress(),
		Tiles:      orch.Results(),
	}

	err = writeMeta(configured.Output, meta)
	if err != nil {
		return nil, err
	}

	if opts.Snapshot && opts.ThumbnailSize > 0 {
		err = writeThumbnail(configured.Output, opts.ThumbnailSize)
		if err != nil {
			opts.Logger.Warn("failed to write snapshot thumbnail", "err", err)
		}
	}

	return meta, nil
}

func metaPath(output string) string {
	return strings.TrimSuffix(output, filepath.Ext(output)) + ".build.json"
}

func writeMeta(output string, meta *tilerender.RenderMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(metaPath(output), data, 0o644)
}

func thumbnailPath(output string) string {
	return strings.TrimSuffix(output, filepath.Ext(output)) + ".thumb.png"
}

func writeThumbnail(output string, size int) error {
	img, err := tilerender.LoadImage(output)
	if err != nil {
		return err
	}
	return tilerender.SaveImage(thumbnailPath(output), tilerender.Thumbnail(img, size, size))
}
