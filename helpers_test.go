package tilerender

import (
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

var stripeColors = []color.RGBA{
	{R: 255, A: 255},
	{G: 255, A: 255},
	{B: 255, A: 255},
	{R: 255, G: 255, A: 255},
}

// stripeImage returns a full size image with only the tile's stripe painted,
// the way a renderer leaves columns outside its range blank.
func stripeImage(width, height int, tile TileDescriptor) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	clr := stripeColors[tile.Index%len(stripeColors)]
	draw.Draw(img, tile.Rect(), image.NewUniform(clr), image.Point{}, draw.Src)
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	if err := SaveImage(path, img); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake renderer scripts need /bin/sh")
	}
}

// writeScript writes an executable shell script standing in for the renderer.
// The script receives the configuration artifact path as $1.
func writeScript(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "renderer.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func collectEvents(t *testing.T, events <-chan Event) []Event {
	t.Helper()
	var all []Event
	for ev := range events {
		all = append(all, ev)
	}
	return all
}

func countKind(events []Event, kind EventKind) int {
	n := 0
	for _, ev := range events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}
