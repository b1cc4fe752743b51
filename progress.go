package tilerender

import (
	"regexp"
	"strconv"
)

var (
	renderLinePattern = regexp.MustCompile(`(?i)(\d+):(\d+):(\d+)\s+Rendering\s+line\s+(\d+)\s+of\s+(\d+)`)
	parsePattern      = regexp.MustCompile(`(?i)(\d+):(\d+):(\d+)\s+Parsing\s+(\d+)K`)
)

// ParseProgress scans a chunk of renderer output for render-line and parse
// markers and returns the updated tile. Matches are applied in order, so the
// last match of each kind in the chunk wins. Text without markers returns the
// tile unchanged.
func ParseProgress(text string, tile TileDescriptor) TileDescriptor {
	for _, m := range renderLinePattern.FindAllStringSubmatch(text, -1) {
		tile.Elapsed = Clock{Hour: atoi(m[1]), Min: atoi(m[2]), Sec: atoi(m[3])}
		tile.Lines = atoi(m[4])
		tile.TotalLines = atoi(m[5])
	}

	for _, m := range parsePattern.FindAllStringSubmatch(text, -1) {
		tile.ParseElapsed = Clock{Hour: atoi(m[1]), Min: atoi(m[2]), Sec: atoi(m[3])}
		tile.ParseKilobytes = atoi(m[4])
	}

	return tile
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// AggregateProgress is floor(100 * sum(lines) / len(tiles) / height). Each
// tile's contribution is clamped to [0,height] so a misbehaving renderer can
// not push the result past 100.
func AggregateProgress(tiles []TileDescriptor, height int) int {
	if len(tiles) == 0 || height <= 0 {
		return 0
	}

	var sum int64
	for _, t := range tiles {
		sum += int64(min(max(t.Lines, 0), height))
	}

	progress := int(100 * sum / (int64(len(tiles)) * int64(height)))
	return min(max(progress, 0), 100)
}

// MaxElapsed is the component-wise maximum render time over all tiles.
func MaxElapsed(tiles []TileDescriptor) Clock {
	var c Clock
	for _, t := range tiles {
		c = maxClock(c, t.Elapsed)
	}
	return c
}

// MaxParseElapsed is the component-wise maximum parse time over all tiles.
func MaxParseElapsed(tiles []TileDescriptor) Clock {
	var c Clock
	for _, t := range tiles {
		c = maxClock(c, t.ParseElapsed)
	}
	return c
}
