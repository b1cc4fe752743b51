package web

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/b1naryth1ef/tilerender"
)

type fakeSource struct {
	job   tilerender.RenderJobConfig
	tiles []tilerender.TileDescriptor
}

func (f fakeSource) JobID() string                      { return "job-1" }
func (f fakeSource) Job() tilerender.RenderJobConfig    { return f.job }
func (f fakeSource) Progress() int                      { return 42 }
func (f fakeSource) ElapsedTimeString() string          { return "(00:01:02)" }
func (f fakeSource) ParseTimeString() string            { return "(00:00:03)" }
func (f fakeSource) StatusLine() string                 { return "Rendering:  42% (00:01:02)" }
func (f fakeSource) Tiles() []tilerender.TileDescriptor { return f.tiles }

func newTestServer(t *testing.T, output string) *httptest.Server {
	t.Helper()
	src := fakeSource{
		job:   tilerender.RenderJobConfig{Name: "<scene>", Output: output, Width: 20, Height: 10},
		tiles: tilerender.Partition(20, 10, 2),
	}
	srv := httptest.NewServer(NewServer(src, nil).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var b bytes.Buffer
	if _, err := b.ReadFrom(resp.Body); err != nil {
		t.Fatal(err)
	}
	return resp, b.String()
}

func TestIndex(t *testing.T) {
	srv := newTestServer(t, "")
	resp, body := get(t, srv.URL+"/")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if !strings.Contains(body, "&lt;scene&gt;") {
		t.Errorf("job name not escaped into page:\n%s", body)
	}
	if resp.Header.Get("Cache-Control") == "" {
		t.Error("no cache headers")
	}
}

func TestStaticContent(t *testing.T) {
	srv := newTestServer(t, "")
	resp, body := get(t, srv.URL+"/static/status.js")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "api/status") {
		t.Errorf("status %d body:\n%s", resp.StatusCode, body)
	}
}

func TestStatus(t *testing.T) {
	srv := newTestServer(t, "")
	resp, body := get(t, srv.URL+"/api/status")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type %q", ct)
	}

	var data StatusData
	if err := json.Unmarshal([]byte(body), &data); err != nil {
		t.Fatal(err)
	}
	if data.JobID != "job-1" || data.Progress != 42 || data.Elapsed != "(00:01:02)" || data.ParseTime != "(00:00:03)" {
		t.Errorf("status: %+v", data)
	}
	if len(data.Tiles) != 2 || data.Tiles[1].StartColumn != 11 {
		t.Errorf("tiles: %+v", data.Tiles)
	}
	if data.Job.Name != "<scene>" {
		t.Errorf("job: %+v", data.Job)
	}
}

func TestImage(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "render.png")

	resp, _ := get(t, newTestServer(t, "").URL+"/api/image")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("no job: status %d", resp.StatusCode)
	}

	srv := newTestServer(t, output)
	resp, _ = get(t, srv.URL+"/api/image")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("no output yet: status %d", resp.StatusCode)
	}

	f, err := os.Create(output)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 20, 10))); err != nil {
		t.Fatal(err)
	}
	f.Close()

	resp, body := get(t, srv.URL+"/api/image")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type %q", ct)
	}
	cfg, err := png.DecodeConfig(strings.NewReader(body))
	if err != nil || cfg.Width != 20 || cfg.Height != 10 {
		t.Errorf("served image: %+v %v", cfg, err)
	}
}
