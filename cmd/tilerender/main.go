package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/b1naryth1ef/tilerender"
	"github.com/b1naryth1ef/tilerender/build"
	"github.com/b1naryth1ef/tilerender/web"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v2"
)

func main() {
	jobFlags := []cli.Flag{
		&cli.PathFlag{
			Name:  "config",
			Usage: "path to the configuration file",
			Value: "tilerender.hcl",
		},
		&cli.StringSliceFlag{
			Name:  "job",
			Usage: "only render the named jobs from the configuration",
		},
		&cli.PathFlag{
			Name:  "scene",
			Usage: "render this scene file instead of the configured jobs",
		},
		&cli.PathFlag{
			Name:  "output",
			Usage: "output image for --scene",
			Value: "output.png",
		},
		&cli.IntFlag{
			Name:  "width",
			Usage: "image width for --scene",
			Value: tilerender.DefaultWidth,
		},
		&cli.IntFlag{
			Name:  "height",
			Usage: "image height for --scene",
			Value: tilerender.DefaultHeight,
		},
		&cli.IntFlag{
			Name:  "quality",
			Usage: "renderer quality level for --scene",
			Value: 9,
		},
		&cli.BoolFlag{
			Name:  "antialias",
			Usage: "enable antialiasing for --scene",
		},
		&cli.IntFlag{
			Name:    "workers",
			Aliases: []string{"n"},
			Usage:   "number of renderer processes, defaults to the configuration or CPU count",
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "renderer output format code (N, B, J)",
			Value: tilerender.DefaultFormat,
		},
		&cli.StringFlag{
			Name:  "executable",
			Usage: "override the renderer executable",
		},
		&cli.PathFlag{
			Name:  "workdir",
			Usage: "override the renderer working directory",
		},
		&cli.BoolFlag{
			Name:  "tui",
			Usage: "show an interactive progress view",
		},
		&cli.StringFlag{
			Name:  "listen",
			Usage: "serve render status over HTTP on this address",
		},
	}

	app := &cli.App{
		Name:        "tilerender",
		Description: "render a scene by splitting it across multiple renderer processes",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "render",
				Usage:  "render the configured jobs",
				Action: commandRender(false),
				Flags:  jobFlags,
			},
			{
				Name:   "snapshot",
				Usage:  "render a low resolution preview of the configured jobs",
				Action: commandRender(true),
				Flags: append(jobFlags, &cli.IntFlag{
					Name:  "thumbnail",
					Usage: "also write a thumbnail no larger than this many pixels",
					Value: 64,
				}),
			},
			{
				Name:   "tiles",
				Usage:  "print the tile partition for an image size",
				Action: commandTiles,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "width", Value: tilerender.DefaultWidth},
					&cli.IntFlag{Name: "height", Value: tilerender.DefaultHeight},
					&cli.IntFlag{Name: "workers", Aliases: []string{"n"}, Value: 4},
					&cli.PathFlag{
						Name:  "preview",
						Usage: "write an image showing each tile in its own colour",
					},
				},
			},
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func newLogger(w io.Writer, verbose bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

func loadConfig(ctx *cli.Context) (*tilerender.Config, error) {
	path := ctx.Path("config")
	config, err := tilerender.LoadConfig(path)
	if err == nil {
		return config, nil
	}

	// An ad-hoc --scene render doesn't need a configuration file.
	if ctx.IsSet("scene") && !ctx.IsSet("config") {
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			return &tilerender.Config{}, nil
		}
	}
	return nil, err
}

func selectJobs(ctx *cli.Context, config *tilerender.Config) ([]tilerender.RenderJobConfig, error) {
	if ctx.IsSet("scene") {
		workers := ctx.Int("workers")
		if workers == 0 {
			workers = min(config.DefaultWorkers(), ctx.Int("width"))
		}
		return []tilerender.RenderJobConfig{{
			Name:      "scene",
			Scene:     ctx.Path("scene"),
			Output:    ctx.Path("output"),
			Width:     ctx.Int("width"),
			Height:    ctx.Int("height"),
			Quality:   ctx.Int("quality"),
			Antialias: ctx.Bool("antialias"),
			Workers:   workers,
			Format:    ctx.String("format"),
		}}, nil
	}

	var jobs []tilerender.RenderJobConfig
	if names := ctx.StringSlice("job"); len(names) > 0 {
		for _, name := range names {
			job, ok := config.JobConfig(name)
			if !ok {
				return nil, fmt.Errorf("no job named %q in %s", name, ctx.Path("config"))
			}
			jobs = append(jobs, job)
		}
	} else {
		jobs = config.JobConfigs()
	}

	if len(jobs) == 0 {
		return nil, fmt.Errorf("no jobs configured in %s", ctx.Path("config"))
	}
	if ctx.IsSet("workers") {
		for i := range jobs {
			jobs[i].Workers = ctx.Int("workers")
		}
	}
	return jobs, nil
}

func commandRender(snapshot bool) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		logger := newLogger(os.Stderr, ctx.Bool("verbose"))

		config, err := loadConfig(ctx)
		if err != nil {
			return err
		}
		jobs, err := selectJobs(ctx, config)
		if err != nil {
			return err
		}

		rendererOpts, err := config.RendererOpts()
		if err != nil {
			return err
		}
		if ctx.IsSet("executable") {
			rendererOpts.Executable = ctx.String("executable")
		}
		if ctx.IsSet("workdir") {
			rendererOpts.WorkDir = ctx.Path("workdir")
		}

		runCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
		defer stop()

		orch := tilerender.NewOrchestrator(tilerender.OrchestratorOpts{
			Renderer: rendererOpts,
			Logger:   logger,
		})

		if addr := ctx.String("listen"); addr != "" {
			server := web.NewServer(orch, logger)
			go func() {
				if err := server.ListenAndServe(runCtx, addr); err != nil {
					logger.Error("status server failed", "err", err)
				}
			}()
		}

		return build.Build(runCtx, orch, jobs, build.BuildOpts{
			Snapshot:      snapshot,
			ThumbnailSize: ctx.Int("thumbnail"),
			TUI:           ctx.Bool("tui"),
			Out:           os.Stdout,
			Logger:        logger,
		})
	}
}

func commandTiles(ctx *cli.Context) error {
	width, height, workers := ctx.Int("width"), ctx.Int("height"), ctx.Int("workers")
	if width < 1 || height < 1 || workers < 1 {
		return fmt.Errorf("%w: width, height and workers must be at least 1", tilerender.ErrInvalidJob)
	}

	tiles := tilerender.Partition(width, height, workers)
	fmt.Println(build.TileTable(tiles))

	if path := ctx.Path("preview"); path != "" {
		img, err := tilerender.TileMap(tiles, width, height)
		if err != nil {
			return err
		}
		return tilerender.SaveImage(path, img)
	}
	return nil
}
