package tilerender

import "time"

// RenderMeta is written next to the output image after a job.
type RenderMeta struct {
	JobID      string          `json:"jobId"`
	Job        RenderJobConfig `json:"job"`
	StartedAt  time.Time       `json:"startedAt"`
	DurationMs int64           `json:"durationMs"`
	Progress   int             `json:"progress"`
	Tiles      []TileResult    `json:"tiles"`
}

type TileResult struct {
	Index       int    `json:"index"`
	StartColumn int    `json:"startColumn"`
	EndColumn   int    `json:"endColumn"`
	State       string `json:"state"`
	ExitCode    int    `json:"exitCode"`
	Lines       int    `json:"lines"`
	Elapsed     string `json:"elapsed"`
}
