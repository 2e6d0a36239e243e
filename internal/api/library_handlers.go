package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/audiotruyenapp/audiotruyen-player/internal/http/response"
)

// queryInt parses an integer query parameter, falling back to def when absent
// or malformed.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// handleListStories returns one page of the catalog listing.
// GET /api/v1/stories?page=1&per_page=20
func (s *Server) handleListStories(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 20)

	result, err := s.library.BrowseStories(r.Context(), page, perPage)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, result, s.logger)
}

// handleSearchStories queries the local story index.
// GET /api/v1/stories/search?q=kiem+lai&limit=10
func (s *Server) handleSearchStories(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit := queryInt(r, "limit", 10)

	result, err := s.library.Search(r.Context(), query, limit)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, result, s.logger)
}

// handleGetStory returns a single story with its chapter list.
// GET /api/v1/stories/{slug}
func (s *Server) handleGetStory(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	story, err := s.library.GetStory(r.Context(), slug)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, story, s.logger)
}

// handleListCategories lists the catalog's browsing categories.
// GET /api/v1/categories
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.library.Categories(r.Context())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, categories, s.logger)
}

// handleCategoryStories returns one page of stories in a category.
// GET /api/v1/categories/{slug}/stories?page=1
func (s *Server) handleCategoryStories(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	page := queryInt(r, "page", 1)

	result, err := s.library.CategoryStories(r.Context(), slug, page)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, result, s.logger)
}
