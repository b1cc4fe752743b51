package tilerender

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/charmbracelet/log"
)

// Compositor accumulates finished tiles into the output canvas and saves it
// after every tile. It is not safe for concurrent use; the orchestrator only
// calls it from its event loop.
type Compositor struct {
	logger     *log.Logger
	outputPath string
	canvas     *image.RGBA
}

func NewCompositor(logger *log.Logger) *Compositor {
	if logger == nil {
		logger = log.Default()
	}
	return &Compositor{
		logger: logger.WithPrefix("compositor"),
	}
}

// BeginJob forgets the previous canvas. The next tile applied becomes the new
// canvas.
func (c *Compositor) BeginJob(outputPath string) {
	c.outputPath = outputPath
	c.canvas = nil
}

// Canvas returns the current canvas, or nil before the first tile.
func (c *Compositor) Canvas() *image.RGBA {
	return c.canvas
}

// ApplyTile copies rect from the tile image onto the same rect of the canvas
// and persists the canvas. The first tile of a job is copied in full since
// renderers emit full size images with only their own stripe drawn.
func (c *Compositor) ApplyTile(img image.Image, rect image.Rectangle) error {
	b := img.Bounds()
	if c.canvas == nil {
		c.canvas = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(c.canvas, c.canvas.Bounds(), img, b.Min, draw.Src)
	} else {
		draw.Draw(c.canvas, rect, img, rect.Min.Add(b.Min), draw.Src)
	}

	if err := SaveImage(c.outputPath, c.canvas); err != nil {
		return fmt.Errorf("save canvas %s: %w", c.outputPath, err)
	}
	return nil
}

// ApplyTileFile loads a finished tile from disk and applies it. A tile image
// that can't be read leaves the canvas untouched.
func (c *Compositor) ApplyTileFile(path string, rect image.Rectangle) error {
	img, err := LoadImage(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTileImage, err)
	}

	c.logger.Debug("compositing tile", "file", path, "rect", rect)
	return c.ApplyTile(img, rect)
}
