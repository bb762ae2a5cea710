// Package dashboard serves the insights web UI. It reads only persisted
// pipeline artifacts from disk and never calls the upstream API; any section
// whose artifact is missing renders an explicit unavailable panel.
package dashboard

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/rmoran/spotify-insights/internal/store"
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr        string
	Store       *store.Store
	TemplatesFS fs.FS
	StaticFS    fs.FS
	Logger      zerolog.Logger
}

// Server is the dashboard HTTP server.
type Server struct {
	router    chi.Router
	server    *http.Server
	templates *Templates
	handlers  *Handlers
	log       zerolog.Logger
}

// NewServer creates a dashboard server over the given artifact store.
func NewServer(cfg ServerConfig) (*Server, error) {
	templates, err := NewTemplates(cfg.TemplatesFS)
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	log := cfg.Logger.With().Str("component", "dashboard").Logger()
	handlers := NewHandlers(cfg.Store, templates, log)

	router := chi.NewRouter()
	s := &Server{
		router:    router,
		templates: templates,
		handlers:  handlers,
		log:       log,
	}

	s.setupMiddleware()
	s.setupRoutes(cfg.StaticFS)

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

func (s *Server) setupRoutes(staticFS fs.FS) {
	fileServer := http.FileServer(http.FS(staticFS))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	s.router.Get("/", s.handlers.Overview)
	s.router.Get("/artists", s.handlers.Artists)
	s.router.Get("/features", s.handlers.Features)
	s.router.Get("/clusters", s.handlers.Clusters)
	s.router.Get("/time", s.handlers.TimePatterns)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("dashboard listening")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Run starts the server and handles graceful shutdown on interrupt signals.
func (s *Server) Run() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
		s.log.Info().Msg("shutting down dashboard")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.log.Info().Msg("dashboard stopped")
	return nil
}
