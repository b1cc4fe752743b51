package tilerender

import (
	"fmt"
	"image"
)

// Clock is an hour/minute/second triple as printed by the renderer.
type Clock struct {
	Hour int `json:"hour"`
	Min  int `json:"min"`
	Sec  int `json:"sec"`
}

func (c Clock) String() string {
	return fmt.Sprintf("(%02d:%02d:%02d)", c.Hour, c.Min, c.Sec)
}

// maxClock takes the maximum of each component independently, so the result
// is not necessarily one of the inputs.
func maxClock(a, b Clock) Clock {
	return Clock{
		Hour: max(a.Hour, b.Hour),
		Min:  max(a.Min, b.Min),
		Sec:  max(a.Sec, b.Sec),
	}
}

// TileDescriptor is one column stripe of the target image. Column and row
// bounds are 1-based and inclusive. Progress fields are only ever written by
// the RenderWorker owning the tile; everyone else works on copies.
type TileDescriptor struct {
	OutputFile  string `json:"outputFile"`
	Index       int    `json:"index"`
	StartColumn int    `json:"startColumn"`
	EndColumn   int    `json:"endColumn"`
	StartRow    int    `json:"startRow"`
	EndRow      int    `json:"endRow"`

	Lines          int   `json:"lines"`
	TotalLines     int   `json:"totalLines"`
	Elapsed        Clock `json:"elapsed"`
	ParseElapsed   Clock `json:"parseElapsed"`
	ParseKilobytes int   `json:"parseKilobytes"`
}

// Rect returns the tile's placement on the canvas in zero-based image
// coordinates.
func (t TileDescriptor) Rect() image.Rectangle {
	return image.Rect(t.StartColumn-1, t.StartRow-1, t.EndColumn, t.EndRow)
}

func (t TileDescriptor) Columns() int {
	return t.EndColumn - t.StartColumn + 1
}

// Partition splits [1,width] into exactly workers column stripes of
// ceil(width/workers) columns each. The last stripe may extend past width and
// stripes past the right edge are degenerate; neither is clipped here. Every
// stripe covers all rows.
func Partition(width, height, workers int) []TileDescriptor {
	if width < 1 || workers < 1 {
		return nil
	}

	stride := (width + workers - 1) / workers
	tiles := make([]TileDescriptor, workers)
	for i := range tiles {
		start := i*stride + 1
		tiles[i] = TileDescriptor{
			Index:       i,
			StartColumn: start,
			EndColumn:   start + stride - 1,
			StartRow:    1,
			EndRow:      height,
		}
	}
	return tiles
}
