// Package web implements the annotation review web UI: sign-in, the row
// index, the annotate form and the raw-record view. Handlers are thin
// wrappers over the ops package; all state lives in the dataset source and
// the annotation store passed in at construction.
package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cueview/internal/config"
	"cueview/internal/dataset"
	"cueview/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Server is the HTTP server for the review UI.
type Server struct {
	src      *dataset.Source
	store    *store.Store
	cfg      *config.Config
	sessions *Sessions
	renderer *Renderer
	version  string
	mux      *http.ServeMux
}

// NewServer creates a Server with all routes registered.
func NewServer(src *dataset.Source, st *store.Store, cfg *config.Config, version string) *Server {
	templates, err := fs.Sub(templateFS, "templates")
	if err != nil {
		panic(fmt.Sprintf("templates subdirectory: %v", err))
	}

	s := &Server{
		src:      src,
		store:    st,
		cfg:      cfg,
		sessions: NewSessions(),
		renderer: NewRenderer(templates, version),
		version:  version,
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleRoot)
	s.mux.HandleFunc("GET /login", s.handleLoginPage)
	s.mux.HandleFunc("POST /login", s.handleLogin)
	s.mux.HandleFunc("GET /logout", s.handleLogout)
	s.mux.HandleFunc("GET /index", s.handleIndex)
	s.mux.HandleFunc("GET /annotate/{idx}", s.handleAnnotate)
	s.mux.HandleFunc("POST /annotate/{idx}", s.handleSave)
	s.mux.HandleFunc("GET /record/{idx}", s.handleRecord)
	s.mux.Handle("GET /static/", http.FileServer(http.FS(staticFS)))
}

// ServeHTTP implements http.Handler with security headers applied.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	securityHeaders(s.mux).ServeHTTP(w, r)
}

// securityHeaders adds standard security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Content-Security-Policy", "default-src 'self'")
		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and blocks until ctx is cancelled or an
// interrupt arrives, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, bind string, port int) error {
	addr := fmt.Sprintf("%s:%d", bind, port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("review ui listening on http://%s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	case sig := <-stop:
		log.Printf("received %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
