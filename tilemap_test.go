package tilerender

import (
	"image"
	"testing"
)

func TestTileMap(t *testing.T) {
	tiles := Partition(10, 4, 3)

	img, err := TileMap(tiles, 10, 4)
	if err != nil {
		t.Fatalf("tile map: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 10, 4) {
		t.Fatalf("bounds: %v", img.Bounds())
	}

	for _, tile := range tiles {
		rect := tile.Rect().Intersect(img.Bounds())
		want := img.At(rect.Min.X, rect.Min.Y)
		if _, _, _, a := want.RGBA(); a == 0 {
			t.Errorf("tile %d left transparent", tile.Index)
		}
		for x := rect.Min.X; x < rect.Max.X; x++ {
			for y := rect.Min.Y; y < rect.Max.Y; y++ {
				if img.At(x, y) != want {
					t.Fatalf("tile %d is not a single colour at %d,%d", tile.Index, x, y)
				}
			}
		}
	}
}

func TestTileColors(t *testing.T) {
	colors, err := TileColors(5)
	if err != nil {
		t.Fatal(err)
	}
	if len(colors) != 5 {
		t.Errorf("got %d colours", len(colors))
	}

	colors, err = TileColors(0)
	if err != nil || colors != nil {
		t.Errorf("got %v, %v", colors, err)
	}
}
