package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/pders01/gamelib/internal/catalog"
	"github.com/pders01/gamelib/internal/config"
	"github.com/pders01/gamelib/internal/library"
	"github.com/pders01/gamelib/internal/search"
	"github.com/pders01/gamelib/internal/storage"
)

// Catalog is the configuration surface of the catalog client.
type Catalog interface {
	SetConfig(creds catalog.Credentials) error
	Config() (catalog.Credentials, bool)
	TestConnection(ctx context.Context) bool
}

// InstallStore tracks local install state per game.
type InstallStore interface {
	InstallState(id string) (*storage.InstallState, error)
	SetInstallState(id string, state storage.InstallState) error
}

type Deps struct {
	Catalog  Catalog
	Library  *library.Manager
	Searcher search.Searcher
	Installs InstallStore
	Logger   *zap.Logger
}

// Server holds the HTTP server dependencies
type Server struct {
	deps   Deps
	router chi.Router
	http   *http.Server
	log    *zap.Logger
}

func New(cfg *config.Config, deps Deps) *Server {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		deps:   deps,
		router: chi.NewRouter(),
		log:    log.Named("api"),
	}

	s.setupMiddleware(cfg.Server.AllowedOrigins)
	s.setupRoutes()

	s.http = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// syncs can take minutes on large libraries
		WriteTimeout:   10 * time.Minute,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware(origins []string) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(accessLog(s.log))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/library", s.handleGetLibrary)
		r.Get("/library/{id}", s.handleGetGame)
		r.Put("/library/{id}/install", s.handlePutInstall)
		r.Get("/stats", s.handleGetStats)
		r.Get("/search", s.handleSearch)

		r.Get("/config", s.handleGetConfig)
		r.Put("/config", s.handlePutConfig)
		r.Post("/config/test", s.handleTestConfig)

		r.Post("/sync", s.handleSync)
		r.Get("/sync", s.handleGetSyncs)
	})

	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}

// Start runs the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.log.Info("listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server with the provided context deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("shutting down")
	return s.http.Shutdown(ctx)
}

// --- Response helpers ---

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

const maxBodySize = 1 << 16

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
