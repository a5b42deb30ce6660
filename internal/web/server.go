package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/pfrederiksen/parkfinder/internal/logger"
	"github.com/pfrederiksen/parkfinder/internal/nps"
	"github.com/pfrederiksen/parkfinder/internal/pipeline"
	"github.com/pfrederiksen/parkfinder/internal/view"
)

const (
	DefaultAddr     = ":8080"
	shutdownTimeout = 10 * time.Second
)

//go:embed templates/page.html.tmpl
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/page.html.tmpl"))

// Server serves the search page backed by a pipeline
type Server struct {
	pipeline *pipeline.Pipeline
	log      *logger.Logger
	server   *http.Server
}

// NewServer creates a server listening on addr
func NewServer(p *pipeline.Pipeline, addr string, log *logger.Logger) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	if log == nil {
		log = logger.Default()
	}

	s := &Server{
		pipeline: p,
		log:      log,
	}

	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Handler returns the HTTP routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /search", s.handleSearch)
	mux.HandleFunc("GET /api/search", s.handleAPISearch)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return s.logRequests(mux)
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.server.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is canceled
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(ln)
	}()

	s.log.Info("Server listening", logger.Fields{"addr": ln.Addr().String()})

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	s.log.Info("Server stopped", nil)
	return nil
}

// pageData is the template input
type pageData struct {
	Region string
	view.Snapshot
}

// searchResponse is the JSON body of /api/search
type searchResponse struct {
	Result  pipeline.Result `json:"result"`
	Display view.Snapshot   `json:"display"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, pageData{Snapshot: view.NewDisplay().Snapshot()})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	region := nps.NormalizeRegion(r.URL.Query().Get("state"))

	d := view.NewDisplay()
	s.pipeline.Run(r.Context(), region, d)

	s.renderPage(w, pageData{Region: region, Snapshot: d.Snapshot()})
}

func (s *Server) handleAPISearch(w http.ResponseWriter, r *http.Request) {
	region := nps.NormalizeRegion(r.URL.Query().Get("state"))

	d := view.NewDisplay()
	result := publicResult(s.pipeline.Run(r.Context(), region, d))

	w.Header().Set("Content-Type", "application/json")
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(searchResponse{Result: result, Display: d.Snapshot()}); err != nil {
		s.log.Error("Error writing response", logger.Fields{"path": r.URL.Path}, err)
	}
}

// publicResult drops error text from a result served to browsers.
// Stage statuses still report the failure.
func publicResult(r pipeline.Result) pipeline.Result {
	r.Parks.Error = ""
	r.Campgrounds.Error = ""
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}

func (s *Server) renderPage(w http.ResponseWriter, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		s.log.Error("Error rendering page", logger.Fields{"region": data.Region}, err)
	}
}

// statusRecorder captures the response status for request logs
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.log.Debug("Request", logger.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		})
	})
}
