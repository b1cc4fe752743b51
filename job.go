package tilerender

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	DefaultWidth  = 400
	DefaultHeight = 300
	DefaultFormat = "N"

	snapshotWidth   = 75
	snapshotHeight  = 50
	snapshotQuality = 10
)

// formatExtensions maps renderer output format codes to the extension the
// renderer gives tile images.
var formatExtensions = map[string]string{
	"N": ".png",
	"B": ".bmp",
	"J": ".jpg",
}

// FormatExtension returns the file extension for a renderer output format code.
func FormatExtension(code string) (string, error) {
	ext, ok := formatExtensions[strings.ToUpper(code)]
	if !ok {
		return "", fmt.Errorf("%w: format code %q", ErrUnsupportedFormat, code)
	}
	return ext, nil
}

// RenderJobConfig holds the parameters of one render invocation.
type RenderJobConfig struct {
	Name      string `json:"name"`
	Scene     string `json:"scene"`
	Output    string `json:"output"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Quality   int    `json:"quality"`
	Antialias bool   `json:"antialias"`
	Workers   int    `json:"workers"`
	Format    string `json:"format"`

	IsSnapshot bool `json:"snapshot"`
}

func (j RenderJobConfig) withDefaults() RenderJobConfig {
	if j.Format == "" {
		j.Format = DefaultFormat
	}
	j.Format = strings.ToUpper(j.Format)
	return j
}

func (j RenderJobConfig) Validate() error {
	if j.Scene == "" {
		return fmt.Errorf("%w: scene file is required", ErrInvalidJob)
	}
	if j.Output == "" {
		return fmt.Errorf("%w: output file is required", ErrInvalidJob)
	}
	if j.Width < 1 || j.Height < 1 {
		return fmt.Errorf("%w: image size must be at least 1x1, got %dx%d", ErrInvalidJob, j.Width, j.Height)
	}
	if j.Workers < 1 {
		return fmt.Errorf("%w: worker count must be at least 1, got %d", ErrInvalidJob, j.Workers)
	}
	if _, err := FormatExtension(j.withDefaults().Format); err != nil {
		return err
	}
	if ext := filepath.Ext(j.Output); !canEncode(ext) {
		return fmt.Errorf("%w: output image %q", ErrUnsupportedFormat, j.Output)
	}
	return nil
}

// Snapshot returns the low resolution preview variant of the job. The scene
// and worker count are kept; the output goes next to the full render.
func (j RenderJobConfig) Snapshot() RenderJobConfig {
	j.Width = snapshotWidth
	j.Height = snapshotHeight
	j.Quality = snapshotQuality
	j.Antialias = true
	j.IsSnapshot = true
	if j.Output != "" {
		j.Output = strings.TrimSuffix(j.Output, filepath.Ext(j.Output)) + ".snapshot.png"
	}
	return j
}
