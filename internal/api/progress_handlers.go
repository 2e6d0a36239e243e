package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/audiotruyenapp/audiotruyen-player/internal/http/response"
)

// storyIDParam parses the {storyID} route parameter.
func storyIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "storyID"), 10, 64)
	return id, err == nil && id > 0
}

// handleListProgress returns all saved checkpoints, newest first.
// GET /api/v1/progress
func (s *Server) handleListProgress(w http.ResponseWriter, r *http.Request) {
	records, err := s.library.ContinueListening(r.Context())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, records, s.logger)
}

// handleLastPlayed returns the most recent checkpoint across all stories.
// GET /api/v1/progress/last-played
func (s *Server) handleLastPlayed(w http.ResponseWriter, r *http.Request) {
	rec, err := s.library.LastPlayed(r.Context())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, rec, s.logger)
}

// handleStoryProgress returns the saved checkpoint for one story.
// GET /api/v1/progress/{storyID}
func (s *Server) handleStoryProgress(w http.ResponseWriter, r *http.Request) {
	storyID, ok := storyIDParam(r)
	if !ok {
		response.BadRequest(w, "invalid story id", s.logger)
		return
	}

	rec, err := s.library.StoryProgress(r.Context(), storyID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, rec, s.logger)
}

// handleClearProgress removes the saved checkpoint for one story.
// DELETE /api/v1/progress/{storyID}
func (s *Server) handleClearProgress(w http.ResponseWriter, r *http.Request) {
	storyID, ok := storyIDParam(r)
	if !ok {
		response.BadRequest(w, "invalid story id", s.logger)
		return
	}

	if err := s.library.ClearProgress(r.Context(), storyID); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.NoContent(w)
}

// handleClearAllProgress removes every saved checkpoint.
// DELETE /api/v1/progress
func (s *Server) handleClearAllProgress(w http.ResponseWriter, r *http.Request) {
	if err := s.library.ClearAllProgress(r.Context()); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.NoContent(w)
}

// handleRecentHistory returns the newest listening events.
// GET /api/v1/history?limit=50
func (s *Server) handleRecentHistory(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)

	events, err := s.library.RecentHistory(r.Context(), limit)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, events, s.logger)
}

// handleStoryHistory returns the newest listening events for one story.
// GET /api/v1/history/stories/{storyID}?limit=50
func (s *Server) handleStoryHistory(w http.ResponseWriter, r *http.Request) {
	storyID, ok := storyIDParam(r)
	if !ok {
		response.BadRequest(w, "invalid story id", s.logger)
		return
	}
	limit := queryInt(r, "limit", 50)

	events, err := s.library.StoryHistory(r.Context(), storyID, limit)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, events, s.logger)
}

// handleStoryStats aggregates the listening journal for one story.
// GET /api/v1/history/stories/{storyID}/stats
func (s *Server) handleStoryStats(w http.ResponseWriter, r *http.Request) {
	storyID, ok := storyIDParam(r)
	if !ok {
		response.BadRequest(w, "invalid story id", s.logger)
		return
	}

	stats, err := s.library.StoryStats(r.Context(), storyID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, stats, s.logger)
}
