package tilerender

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

type Config struct {
	Workers  int                  `hcl:"workers,optional"`
	Renderer *RendererConfigBlock `hcl:"renderer,block"`
	Jobs     []*JobConfigBlock    `hcl:"job,block"`
}

type RendererConfigBlock struct {
	Executable   string   `hcl:"executable,optional"`
	WorkDir      string   `hcl:"workdir,optional"`
	TempDir      string   `hcl:"temp_dir,optional"`
	LibraryPaths []string `hcl:"library_paths,optional"`
	Timeout      string   `hcl:"timeout,optional"`
}

type JobConfigBlock struct {
	Name      string `hcl:"name,label"`
	Scene     string `hcl:"scene"`
	Output    string `hcl:"output"`
	Width     int    `hcl:"width,optional"`
	Height    int    `hcl:"height,optional"`
	Quality   int    `hcl:"quality,optional"`
	Antialias bool   `hcl:"antialias,optional"`
	Workers   int    `hcl:"workers,optional"`
	Format    string `hcl:"format,optional"`
}

// RendererOpts are the deployment settings shared by every worker.
type RendererOpts struct {
	Executable   string
	WorkDir      string
	TempDir      string
	LibraryPaths []string
	Timeout      time.Duration
}

var envFunction = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "name", Type: cty.String},
	},
	Type: function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		return cty.StringVal(os.Getenv(args[0].AsString())), nil
	},
})

func newHCLEvalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{},
		Functions: map[string]function.Function{
			"env": envFunction,
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	var cfg Config
	evalCtx := newHCLEvalContext()
	err := hclsimple.DecodeFile(path, evalCtx, &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, cfg.validate()
}

// ParseConfig decodes HCL source. The filename is only used for diagnostics
// and must end in .hcl.
func ParseConfig(filename string, src []byte) (*Config, error) {
	var cfg Config
	evalCtx := newHCLEvalContext()
	err := hclsimple.Decode(filename, src, evalCtx, &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, cfg.validate()
}

func (c *Config) validate() error {
	if _, err := c.RendererOpts(); err != nil {
		return err
	}

	seen := map[string]struct{}{}
	for _, job := range c.Jobs {
		if _, ok := seen[job.Name]; ok {
			return fmt.Errorf("%w: duplicate job %q", ErrInvalidJob, job.Name)
		}
		seen[job.Name] = struct{}{}

		if err := c.jobConfig(job).Validate(); err != nil {
			return fmt.Errorf("job %q: %w", job.Name, err)
		}
	}
	return nil
}

// DefaultWorkers is the worker count used when neither the job nor the
// config sets one.
func (c *Config) DefaultWorkers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

func (c *Config) jobConfig(job *JobConfigBlock) RenderJobConfig {
	cfg := RenderJobConfig{
		Name:      job.Name,
		Scene:     job.Scene,
		Output:    job.Output,
		Width:     job.Width,
		Height:    job.Height,
		Quality:   job.Quality,
		Antialias: job.Antialias,
		Workers:   job.Workers,
		Format:    job.Format,
	}
	if cfg.Width == 0 {
		cfg.Width = DefaultWidth
	}
	if cfg.Height == 0 {
		cfg.Height = DefaultHeight
	}
	if cfg.Workers == 0 {
		cfg.Workers = min(c.DefaultWorkers(), cfg.Width)
	}
	return cfg.withDefaults()
}

// JobConfigs returns every job block with defaults applied.
func (c *Config) JobConfigs() []RenderJobConfig {
	jobs := make([]RenderJobConfig, 0, len(c.Jobs))
	for _, job := range c.Jobs {
		jobs = append(jobs, c.jobConfig(job))
	}
	return jobs
}

// JobConfig returns the named job.
func (c *Config) JobConfig(name string) (RenderJobConfig, bool) {
	for _, job := range c.Jobs {
		if job.Name == name {
			return c.jobConfig(job), true
		}
	}
	return RenderJobConfig{}, false
}

func (c *Config) RendererOpts() (RendererOpts, error) {
	opts := RendererOpts{
		Executable: "povray",
		TempDir:    filepath.Join(os.TempDir(), "tilerender"),
	}

	r := c.Renderer
	if r == nil {
		return opts, nil
	}

	if r.Executable != "" {
		opts.Executable = r.Executable
	}
	if r.TempDir != "" {
		opts.TempDir = r.TempDir
	}
	opts.WorkDir = r.WorkDir
	opts.LibraryPaths = r.LibraryPaths

	if r.Timeout != "" {
		timeout, err := time.ParseDuration(r.Timeout)
		if err != nil {
			return opts, fmt.Errorf("renderer timeout: %w", err)
		}
		opts.Timeout = timeout
	}
	return opts, nil
}
