package tilerender

import "testing"

func TestParseProgressRenderLine(t *testing.T) {
	tile := TileDescriptor{EndRow: 300}

	tile = ParseProgress("(1,1) to (200,300)  0:00:05 Rendering line 50 of 300", tile)
	if tile.Lines != 50 || tile.TotalLines != 300 {
		t.Fatalf("lines: got %d of %d", tile.Lines, tile.TotalLines)
	}
	if tile.Elapsed != (Clock{Sec: 5}) {
		t.Fatalf("elapsed: got %v", tile.Elapsed)
	}

	tile = ParseProgress("0:00:09 Rendering line 300 of 300\n", tile)
	if tile.Lines != 300 || tile.Elapsed != (Clock{Sec: 9}) {
		t.Fatalf("got lines=%d elapsed=%v", tile.Lines, tile.Elapsed)
	}
}

func TestParseProgressLastMatchWins(t *testing.T) {
	chunk := "0:00:03 Rendering line 20 of 100\r0:00:04 Rendering line 30 of 100\r0:00:02 rendering LINE 25 of 100\r"
	tile := ParseProgress(chunk, TileDescriptor{})

	if tile.Lines != 25 {
		t.Errorf("lines: got %d, want 25", tile.Lines)
	}
	if tile.Elapsed != (Clock{Sec: 2}) {
		t.Errorf("elapsed: got %v", tile.Elapsed)
	}
}

func TestParseProgressParsePhase(t *testing.T) {
	chunk := "0:00:01 Parsing 120K\r0:01:07 PARSING 4096K\r"
	tile := ParseProgress(chunk, TileDescriptor{Lines: 7})

	if tile.ParseKilobytes != 4096 {
		t.Errorf("kilobytes: got %d", tile.ParseKilobytes)
	}
	if tile.ParseElapsed != (Clock{Min: 1, Sec: 7}) {
		t.Errorf("parse elapsed: got %v", tile.ParseElapsed)
	}
	if tile.Lines != 7 {
		t.Errorf("render state changed: lines %d", tile.Lines)
	}
}

func TestParseProgressBothPatterns(t *testing.T) {
	chunk := "0:00:10 Parsing 64K\n0:00:12 Rendering line 4 of 10\n"
	tile := ParseProgress(chunk, TileDescriptor{})

	if tile.ParseKilobytes != 64 || tile.ParseElapsed != (Clock{Sec: 10}) {
		t.Errorf("parse: got %dK %v", tile.ParseKilobytes, tile.ParseElapsed)
	}
	if tile.Lines != 4 || tile.Elapsed != (Clock{Sec: 12}) {
		t.Errorf("render: got %d %v", tile.Lines, tile.Elapsed)
	}
}

func TestParseProgressNoMatch(t *testing.T) {
	prior := TileDescriptor{
		Index:          2,
		Lines:          40,
		TotalLines:     100,
		Elapsed:        Clock{Min: 3},
		ParseElapsed:   Clock{Sec: 8},
		ParseKilobytes: 12,
	}
	for _, text := range []string{"", "Persistence of Vision Ray Tracer\n", "Rendering line of\n", "0:00 Parsing 5K"} {
		if got := ParseProgress(text, prior); got != prior {
			t.Errorf("%q changed tile: %+v", text, got)
		}
	}
}

func TestAggregateProgress(t *testing.T) {
	tests := []struct {
		name   string
		lines  []int
		height int
		want   int
	}{
		{"two workers", []int{150, 300}, 300, 75},
		{"nothing rendered", []int{0, 0, 0}, 300, 0},
		{"all done", []int{300, 300, 300}, 300, 100},
		{"floored", []int{1, 0, 0}, 300, 0},
		{"over reporting tile is clamped", []int{5000, 0}, 300, 50},
		{"all over reporting", []int{900, 900}, 300, 100},
		{"negative lines", []int{-50, 300}, 300, 50},
		{"zero height", []int{10}, 0, 0},
		{"no tiles", nil, 300, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tiles := make([]TileDescriptor, len(tt.lines))
			for i, l := range tt.lines {
				tiles[i].Lines = l
			}
			got := AggregateProgress(tiles, tt.height)
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
			if got < 0 || got > 100 {
				t.Errorf("out of range: %d", got)
			}
		})
	}
}

func TestMaxElapsedIsComponentWise(t *testing.T) {
	tiles := []TileDescriptor{
		{Elapsed: Clock{Hour: 0, Min: 5, Sec: 10}, ParseElapsed: Clock{Sec: 40}},
		{Elapsed: Clock{Hour: 1, Min: 2, Sec: 3}, ParseElapsed: Clock{Min: 1, Sec: 2}},
	}

	if got, want := MaxElapsed(tiles), (Clock{Hour: 1, Min: 5, Sec: 10}); got != want {
		t.Errorf("elapsed: got %v, want %v", got, want)
	}
	if got, want := MaxParseElapsed(tiles), (Clock{Min: 1, Sec: 40}); got != want {
		t.Errorf("parse: got %v, want %v", got, want)
	}
	if got := MaxElapsed(nil); got != (Clock{}) {
		t.Errorf("empty: got %v", got)
	}
}
