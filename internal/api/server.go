package api

import (
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/dgallion1/puzzlegest/internal/config"
	"github.com/dgallion1/puzzlegest/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for puzzlegest.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	log          *slog.Logger
	cfg          config.Config
	apiKey       atomic.Pointer[string]
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		log:          log,
		cfg:          cfg,
	}
	s.SetAPIKey(cfg.APIKey)
	s.setupRoutes()
	return s
}

// SetAPIKey replaces the bearer key; requests in flight keep the old one.
func (s *Server) SetAPIKey(key string) {
	s.apiKey.Store(&key)
}

func (s *Server) currentKey() string {
	return *s.apiKey.Load()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.currentKey, s.log))

		r.Post("/api/extract", s.handleExtract)
		r.Post("/api/extract/batch", s.handleBatchExtract)
		r.Get("/api/extract/{jobID}/status", s.handleExtractStatus)
		r.Get("/api/stats/llm", s.handleLLMStats)

		r.Get("/api/documents", s.handleListDocuments)
		r.Route("/api/documents/{docID}", func(r chi.Router) {
			r.Delete("/", s.handleDeleteDocument)
			r.Get("/puzzles", s.handleListPuzzles)
			r.Get("/puzzles/{number}", s.handleGetPuzzle)
			r.Get("/puzzles/{number}/summary", s.handlePuzzleSummary)
			r.Get("/stats", s.handleDocumentStats)
			r.Get("/search", s.handleSearch)
			r.Get("/techniques", s.handleTechniques)
			r.Get("/verify", s.handleVerify)
			r.Get("/export.xlsx", s.handleExportXLSX)
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}
