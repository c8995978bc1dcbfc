// Package server provides the HTTP server and routing for Stonks.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/niksan004/Stonks/internal/config"
	"github.com/niksan004/Stonks/internal/database"
	historicalhandlers "github.com/niksan004/Stonks/internal/modules/historical/handlers"
	"github.com/niksan004/Stonks/internal/modules/session"
	sessionhandlers "github.com/niksan004/Stonks/internal/modules/session/handlers"
)

// JobRunner triggers background jobs by name
type JobRunner interface {
	RunByName(name string) error
	JobNames() []string
}

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	HistoryDB *database.DB
	Config    *config.Config
	Sessions  *session.Store
	Jobs      JobRunner // Optional

	SessionHandlers    *sessionhandlers.Handler
	HistoricalHandlers *historicalhandlers.Handler
}

// Server represents the HTTP server
type Server struct {
	router    *chi.Mux
	server    *http.Server
	log       zerolog.Logger
	cfg       *config.Config
	historyDB *database.DB
	system    *SystemHandlers
	sessions  *sessionhandlers.Handler
	history   *historicalhandlers.Handler
	startedAt time.Time
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		cfg:       cfg.Config,
		historyDB: cfg.HistoryDB,
		sessions:  cfg.SessionHandlers,
		history:   cfg.HistoricalHandlers,
		startedAt: time.Now(),
	}
	s.system = NewSystemHandlers(cfg.HistoryDB, cfg.Sessions, cfg.Jobs, s.startedAt, cfg.Log)

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // Large Monte Carlo runs stream a lot of paths
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Router exposes the configured handler, mostly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// /api/sessions/...
		if s.sessions != nil {
			s.sessions.RegisterRoutes(r)
		}
		// /api/assets/...
		if s.history != nil {
			s.history.RegisterRoutes(r)
		}

		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.system.HandleSystemStatus)
			r.Get("/database", s.system.HandleDatabaseStats)
		})

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", s.system.HandleListJobs)
			r.Post("/{name}", func(w http.ResponseWriter, r *http.Request) {
				s.system.HandleTriggerJob(w, r, chi.URLParam(r, "name"))
			})
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
