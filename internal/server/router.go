package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"bisect/internal/config"
	"bisect/internal/sse"
)

// Server — HTTP API для запуска бисекции
type Server struct {
	router chi.Router
	runs   *Store
	hub    *sse.Hub
	log    *slog.Logger
	cfg    config.Config
}

func NewServer(cfg config.Config, log *slog.Logger) *Server {
	s := &Server{
		runs: NewStore(),
		hub:  sse.NewHub(64),
		log:  log,
		cfg:  cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/problems", s.handleProblems)

		r.Post("/runs", s.handleStartRun)
		r.Get("/runs/{id}", s.handleGetRun)
		r.Post("/runs/{id}/stop", s.handleStopRun)
		r.Get("/runs/{id}/stream", s.handleStream)
		r.Get("/runs/{id}/export", s.handleExport)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
