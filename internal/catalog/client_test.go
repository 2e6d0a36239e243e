package catalog

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audiotruyenapp/audiotruyen-player/internal/config"
	apperrors "github.com/audiotruyenapp/audiotruyen-player/internal/errors"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(config.CatalogConfig{
		BaseURL:           srv.URL,
		RequestTimeout:    0,
		RequestsPerSecond: 1000,
		Burst:             1000,
	}, slog.New(slog.DiscardHandler))
}

func TestStoryBySlug(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/stories/linh-vu-thien-ha", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": 42,
			"slug": "linh-vu-thien-ha",
			"title": "Linh Vũ Thiên Hạ",
			"author": "Vũ Phong",
			"cover_url": "https://cdn.example.com/covers/42.jpg",
			"description": "<p>Tiên hiệp <strong>kinh điển</strong></p>",
			"categories": [{"id": 1, "slug": "tien-hiep", "name": "Tiên Hiệp"}],
			"chapters": [
				{"number": 1, "title": "Chương 1", "audio_url": "https://cdn.example.com/42/1.mp3"},
				{"number": 2, "title": "Chương 2", "audio_url": "https://cdn.example.com/42/2.mp3"}
			]
		}`))
	}))

	story, err := client.StoryBySlug(context.Background(), "linh-vu-thien-ha")
	require.NoError(t, err)

	assert.Equal(t, int64(42), story.ID)
	assert.Equal(t, "Linh Vũ Thiên Hạ", story.Title)
	require.Len(t, story.Chapters, 2)
	assert.Equal(t, 1, story.Chapters[0].Number)
	assert.Equal(t, "https://cdn.example.com/42/2.mp3", story.Chapters[1].AudioURL)
	require.Len(t, story.Categories, 1)
	assert.Equal(t, "tien-hiep", story.Categories[0].Slug)

	// HTML descriptions arrive as markdown.
	assert.Equal(t, "Tiên hiệp **kinh điển**", story.Description)
}

func TestStoryBySlugNotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := client.StoryBySlug(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestStoryBySlugUpstreamFailure(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := client.StoryBySlug(context.Background(), "any")
	assert.ErrorIs(t, err, apperrors.ErrUpstream)
}

func TestListStories(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/stories", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "10", r.URL.Query().Get("per_page"))
		w.Write([]byte(`{
			"stories": [
				{"id": 1, "slug": "a", "title": "A", "chapters": []},
				{"id": 2, "slug": "b", "title": "B", "chapters": []}
			],
			"page": 2, "per_page": 10, "total_pages": 5, "total": 42
		}`))
	}))

	page, err := client.ListStories(context.Background(), 2, 10)
	require.NoError(t, err)
	assert.Len(t, page.Stories, 2)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 5, page.TotalPages)
	assert.Equal(t, 42, page.Total)
}

func TestListStoriesNormalizesPage(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		w.Write([]byte(`{"stories": [], "page": 1, "per_page": 20, "total_pages": 0, "total": 0}`))
	}))

	_, err := client.ListStories(context.Background(), -3, 0)
	require.NoError(t, err)
}

func TestStoriesByCategory(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/categories/tien-hiep/stories", r.URL.Path)
		w.Write([]byte(`{"stories": [{"id": 9, "slug": "c", "title": "C", "chapters": []}], "page": 1, "per_page": 20, "total_pages": 1, "total": 1}`))
	}))

	page, err := client.StoriesByCategory(context.Background(), "tien-hiep", 1)
	require.NoError(t, err)
	require.Len(t, page.Stories, 1)
	assert.Equal(t, int64(9), page.Stories[0].ID)
}

func TestListCategories(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/categories", r.URL.Path)
		w.Write([]byte(`{"categories": [
			{"id": 1, "slug": "tien-hiep", "name": "Tiên Hiệp"},
			{"id": 2, "slug": "ngon-tinh", "name": "Ngôn Tình"}
		]}`))
	}))

	categories, err := client.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "Ngôn Tình", categories[1].Name)
}

func TestPlainTextDescriptionPassesThrough(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"id": 1, "slug": "a", "title": "A", "description": "không có HTML", "chapters": []}`))
	}))

	story, err := client.StoryBySlug(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "không có HTML", story.Description)
}
