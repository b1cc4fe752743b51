package web

import "github.com/b1naryth1ef/tilerender"

type StatusData struct {
	JobID      string                      `json:"jobId"`
	Job        tilerender.RenderJobConfig  `json:"job"`
	Progress   int                         `json:"progress"`
	Elapsed    string                      `json:"elapsed"`
	ParseTime  string                      `json:"parseTime"`
	StatusLine string                      `json:"statusLine"`
	Tiles      []tilerender.TileDescriptor `json:"tiles"`
}

// StatusSource is implemented by *tilerender.Orchestrator.
type StatusSource interface {
	JobID() string
	Job() tilerender.RenderJobConfig
	Progress() int
	ElapsedTimeString() string
	ParseTimeString() string
	StatusLine() string
	Tiles() []tilerender.TileDescriptor
}

func newStatusData(src StatusSource) StatusData {
	return StatusData{
		JobID:      src.JobID(),
		Job:        src.Job(),
		Progress:   src.Progress(),
		Elapsed:    src.ElapsedTimeString(),
		ParseTime:  src.ParseTimeString(),
		StatusLine: src.StatusLine(),
		Tiles:      src.Tiles(),
	}
}
