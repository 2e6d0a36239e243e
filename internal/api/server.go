// Package api provides the HTTP API server and handlers for the playback
// daemon.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/audiotruyenapp/audiotruyen-player/internal/http/response"
	"github.com/audiotruyenapp/audiotruyen-player/internal/service"
	"github.com/audiotruyenapp/audiotruyen-player/internal/sse"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	player     *service.PlayerService
	library    *service.LibraryService
	sseHandler *sse.Handler
	router     *chi.Mux
	logger     *slog.Logger
	serverName string
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(player *service.PlayerService, library *service.LibraryService, sseHandler *sse.Handler, serverName string, logger *slog.Logger) *Server {
	s := &Server{
		player:     player,
		library:    library,
		sseHandler: sseHandler,
		router:     chi.NewRouter(),
		logger:     logger,
		serverName: serverName,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	// The daemon serves local network clients; any origin may talk to it.
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Health check.
	s.router.Get("/health", s.handleHealthCheck)

	// API v1.
	s.router.Route("/api/v1", func(r chi.Router) {
		// Playback session transport.
		r.Route("/player", func(r chi.Router) {
			r.Get("/", s.handlePlayerState)
			r.Post("/load", s.handleLoadStory)
			r.Post("/play", s.handlePlay)
			r.Post("/pause", s.handlePause)
			r.Post("/toggle", s.handleTogglePlay)
			r.Post("/seek", s.handleSeek)
			r.Post("/skip", s.handleSkip)
			r.Post("/chapter", s.handleSetChapter)
			r.Post("/next", s.handleNextChapter)
			r.Post("/previous", s.handlePreviousChapter)
			r.Post("/rate", s.handleSetRate)
			r.Post("/volume", s.handleSetVolume)
			r.Post("/speed-menu", s.handleToggleSpeedMenu)
			r.Post("/resume", s.handleResume)
			r.Delete("/resume", s.handleDismissResume)
			r.Post("/reset", s.handleReset)
		})

		// Catalog browsing and local search.
		r.Route("/stories", func(r chi.Router) {
			r.Get("/", s.handleListStories)
			r.Get("/search", s.handleSearchStories)
			r.Get("/{slug}", s.handleGetStory)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", s.handleListCategories)
			r.Get("/{slug}/stories", s.handleCategoryStories)
		})

		// Saved checkpoints.
		r.Route("/progress", func(r chi.Router) {
			r.Get("/", s.handleListProgress)
			r.Delete("/", s.handleClearAllProgress)
			r.Get("/last-played", s.handleLastPlayed)
			r.Get("/{storyID}", s.handleStoryProgress)
			r.Delete("/{storyID}", s.handleClearProgress)
		})

		// Listening journal.
		r.Route("/history", func(r chi.Router) {
			r.Get("/", s.handleRecentHistory)
			r.Get("/stories/{storyID}", s.handleStoryHistory)
			r.Get("/stories/{storyID}/stats", s.handleStoryStats)
		})

		// Server-sent events stream.
		r.Get("/events", s.sseHandler.ServeHTTP)
	})
}

// handleHealthCheck returns server health status.
func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]string{
		"status": "healthy",
		"name":   s.serverName,
	}, s.logger)
}
