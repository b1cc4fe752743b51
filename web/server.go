package web

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

var indexTemplate = template.Must(template.New("index.html").Parse(GetIndexHTML()))

// Server exposes the progress of a render job over HTTP. The output image is
// served straight from disk; it is rewritten atomically after every tile.
type Server struct {
	source StatusSource
	logger *log.Logger
}

func NewServer(source StatusSource, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		source: source,
		logger: logger.WithPrefix("web"),
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)

	r.Get("/", s.handleIndex)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(GetStaticContent()))))
	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/image", s.handleImage)
	})
	return r
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := indexTemplate.Execute(w, s.source.Job().Name)
	if err != nil {
		s.logger.Warn("failed to render index", "err", err)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(newStatusData(s.source))
	if err != nil {
		s.logger.Warn("failed to encode status", "err", err)
	}
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	output := s.source.Job().Output
	if output == "" {
		http.Error(w, "no render job", http.StatusNotFound)
		return
	}

	if _, err := os.Stat(output); errors.Is(err, os.ErrNotExist) {
		http.Error(w, "no tile finished yet", http.StatusNotFound)
		return
	}
	http.ServeFile(w, r, output)
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("serving render status", "addr", addr)
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
