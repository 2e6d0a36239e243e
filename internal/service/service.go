// Package service contains the application services that sit between the HTTP
// layer and the player, catalog, search, and storage packages.
package service

import (
	"context"

	"github.com/audiotruyenapp/audiotruyen-player/internal/domain"
	"github.com/audiotruyenapp/audiotruyen-player/internal/search"
)

// Catalog fetches stories and categories from the remote catalog API.
type Catalog interface {
	StoryBySlug(ctx context.Context, slug string) (*domain.Story, error)
	ListStories(ctx context.Context, page, perPage int) (*domain.StoryPage, error)
	StoriesByCategory(ctx context.Context, categorySlug string, page int) (*domain.StoryPage, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

// Searcher maintains and queries the local story search index.
type Searcher interface {
	IndexStory(story *domain.Story) error
	IndexStories(stories []domain.Story) error
	Search(ctx context.Context, queryText string, limit int) (*search.Result, error)
}

// CoverCache downloads covers and serves their blurhash placeholders.
type CoverCache interface {
	Ensure(ctx context.Context, storyID int64, url string) (string, error)
	BlurHash(storyID int64) (string, bool)
}

// HistoryReader exposes the read side of the listening journal.
type HistoryReader interface {
	ListRecent(ctx context.Context, limit int) ([]domain.ListeningEvent, error)
	ListForStory(ctx context.Context, storyID int64, limit int) ([]domain.ListeningEvent, error)
	StatsForStory(ctx context.Context, storyID int64) (*domain.StoryListenStats, error)
}
