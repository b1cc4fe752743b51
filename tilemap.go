package tilerender

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/muesli/gamut"
)

// TileColors returns one distinct pastel colour per tile.
func TileColors(n int) ([]color.Color, error) {
	if n <= 0 {
		return nil, nil
	}
	colors, err := gamut.Generate(n, gamut.PastelGenerator{})
	if err != nil {
		return nil, fmt.Errorf("generate tile palette: %w", err)
	}
	return colors, nil
}

// TileMap draws each tile's stripe of a width x height image in its own
// colour. Parts of a stripe outside the image are dropped.
func TileMap(tiles []TileDescriptor, width, height int) (image.Image, error) {
	colors, err := TileColors(len(tiles))
	if err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for idx, tile := range tiles {
		draw.Draw(img, tile.Rect(), image.NewUniform(colors[idx]), image.Point{}, draw.Src)
	}
	return img, nil
}
