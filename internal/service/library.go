package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/audiotruyenapp/audiotruyen-player/internal/domain"
	"github.com/audiotruyenapp/audiotruyen-player/internal/progress"
	"github.com/audiotruyenapp/audiotruyen-player/internal/search"
)

// LibraryService serves the browsing surface: catalog listings, local search,
// saved progress, and the listening history.
type LibraryService struct {
	catalog Catalog
	index   Searcher
	store   progress.Store
	history HistoryReader
	covers  CoverCache
	logger  *slog.Logger
}

// NewLibraryService creates a library service. index, history, and covers may
// be nil when durable storage is disabled.
func NewLibraryService(catalog Catalog, index Searcher, store progress.Store, history HistoryReader, covers CoverCache, logger *slog.Logger) *LibraryService {
	return &LibraryService{
		catalog: catalog,
		index:   index,
		store:   store,
		history: history,
		covers:  covers,
		logger:  logger,
	}
}

// BrowseStories returns one page of the catalog listing. Listed stories are
// fed into the search index so browsing keeps local search warm.
func (s *LibraryService) BrowseStories(ctx context.Context, page, perPage int) (*domain.StoryPage, error) {
	result, err := s.catalog.ListStories(ctx, page, perPage)
	if err != nil {
		return nil, err
	}
	s.indexPage(result.Stories)
	return result, nil
}

// GetStory fetches a single story with its full chapter list.
func (s *LibraryService) GetStory(ctx context.Context, slug string) (*domain.Story, error) {
	story, err := s.catalog.StoryBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	s.indexPage([]domain.Story{*story})
	return story, nil
}

// Search queries the local story index.
func (s *LibraryService) Search(ctx context.Context, queryText string, limit int) (*search.Result, error) {
	if s.index == nil {
		return &search.Result{Query: queryText, Hits: []search.Hit{}}, nil
	}
	return s.index.Search(ctx, queryText, limit)
}

// Categories lists the catalog's browsing categories.
func (s *LibraryService) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.catalog.ListCategories(ctx)
}

// CategoryStories returns one page of stories in a category.
func (s *LibraryService) CategoryStories(ctx context.Context, categorySlug string, page int) (*domain.StoryPage, error) {
	result, err := s.catalog.StoriesByCategory(ctx, categorySlug, page)
	if err != nil {
		return nil, err
	}
	s.indexPage(result.Stories)
	return result, nil
}

// ContinueListening returns all saved checkpoints, newest first, with cover
// blurhashes filled in where the cover cache has them.
func (s *LibraryService) ContinueListening(ctx context.Context) ([]*domain.PlaybackProgress, error) {
	records, err := s.store.AllProgress(ctx)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	for _, rec := range records {
		s.fillBlurHash(rec)
	}
	return records, nil
}

// LastPlayed returns the most recently saved checkpoint across all stories.
func (s *LibraryService) LastPlayed(ctx context.Context) (*domain.PlaybackProgress, error) {
	rec, err := s.store.GetLastPlayed(ctx)
	if err != nil {
		return nil, err
	}
	s.fillBlurHash(rec)
	return rec, nil
}

// StoryProgress returns the saved checkpoint for one story.
func (s *LibraryService) StoryProgress(ctx context.Context, storyID int64) (*domain.PlaybackProgress, error) {
	rec, err := s.store.GetProgress(ctx, storyID)
	if err != nil {
		return nil, err
	}
	s.fillBlurHash(rec)
	return rec, nil
}

// ClearProgress removes the saved checkpoint for one story.
func (s *LibraryService) ClearProgress(ctx context.Context, storyID int64) error {
	return s.store.ClearProgress(ctx, storyID)
}

// ClearAllProgress removes every saved checkpoint.
func (s *LibraryService) ClearAllProgress(ctx context.Context) error {
	return s.store.ClearAll(ctx)
}

// RecentHistory returns the newest listening events across all stories.
func (s *LibraryService) RecentHistory(ctx context.Context, limit int) ([]domain.ListeningEvent, error) {
	if s.history == nil {
		return []domain.ListeningEvent{}, nil
	}
	return s.history.ListRecent(ctx, limit)
}

// StoryHistory returns the newest listening events for one story.
func (s *LibraryService) StoryHistory(ctx context.Context, storyID int64, limit int) ([]domain.ListeningEvent, error) {
	if s.history == nil {
		return []domain.ListeningEvent{}, nil
	}
	return s.history.ListForStory(ctx, storyID, limit)
}

// StoryStats aggregates the journal for one story.
func (s *LibraryService) StoryStats(ctx context.Context, storyID int64) (*domain.StoryListenStats, error) {
	if s.history == nil {
		return &domain.StoryListenStats{StoryID: storyID}, nil
	}
	return s.history.StatsForStory(ctx, storyID)
}

func (s *LibraryService) indexPage(stories []domain.Story) {
	if s.index == nil || len(stories) == 0 {
		return
	}
	if err := s.index.IndexStories(stories); err != nil {
		s.logger.Warn("failed to index stories", "count", len(stories), "error", err)
	}
}

func (s *LibraryService) fillBlurHash(rec *domain.PlaybackProgress) {
	if rec == nil || s.covers == nil || rec.CoverBlurHash != "" {
		return
	}
	if hash, ok := s.covers.BlurHash(rec.StoryID); ok {
		rec.CoverBlurHash = hash
	}
}
