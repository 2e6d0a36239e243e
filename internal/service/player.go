package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/audiotruyenapp/audiotruyen-player/internal/domain"
	"github.com/audiotruyenapp/audiotruyen-player/internal/player"
	"github.com/audiotruyenapp/audiotruyen-player/internal/validation"
)

// LoadStoryRequest loads a story from the catalog into the session.
type LoadStoryRequest struct {
	Slug string `json:"slug" validate:"required"`
	// Chapter optionally selects a starting chapter other than the first.
	Chapter int `json:"chapter" validate:"omitempty,gte=1"`
}

// SeekRequest positions playback at an absolute offset in the current chapter.
type SeekRequest struct {
	Seconds float64 `json:"seconds" validate:"gte=0"`
}

// SkipRequest moves playback relative to the current position. Delta may be
// negative.
type SkipRequest struct {
	Delta float64 `json:"delta"`
}

// ChapterRequest selects a chapter by number.
type ChapterRequest struct {
	Chapter int `json:"chapter" validate:"required,gte=1"`
}

// RateRequest changes the playback rate.
type RateRequest struct {
	Rate float64 `json:"rate" validate:"required,gt=0"`
}

// VolumeRequest changes the playback volume.
type VolumeRequest struct {
	Volume float64 `json:"volume" validate:"gte=0,lte=1"`
}

// PlayerService drives the playback session. It resolves stories through the
// catalog, keeps the search index and cover cache warm as a side effect, and
// forwards transport commands to the session controller.
type PlayerService struct {
	controller *player.Controller
	catalog    Catalog
	index      Searcher
	covers     CoverCache
	validator  *validation.Validator
	logger     *slog.Logger
}

// NewPlayerService creates a player service. index and covers may be nil when
// durable storage is disabled.
func NewPlayerService(controller *player.Controller, catalog Catalog, index Searcher, covers CoverCache, validator *validation.Validator, logger *slog.Logger) *PlayerService {
	return &PlayerService{
		controller: controller,
		catalog:    catalog,
		index:      index,
		covers:     covers,
		validator:  validator,
		logger:     logger,
	}
}

// State returns a snapshot of the session state.
func (s *PlayerService) State() player.SessionState {
	return s.controller.State()
}

// LoadStory fetches the story by slug and mounts it into the session. When a
// chapter is requested it is selected after the load; otherwise the session
// starts on chapter one, paused.
func (s *PlayerService) LoadStory(ctx context.Context, req LoadStoryRequest) (player.SessionState, error) {
	if err := s.validator.Validate(req); err != nil {
		return s.controller.State(), err
	}

	story, err := s.catalog.StoryBySlug(ctx, req.Slug)
	if err != nil {
		return s.controller.State(), fmt.Errorf("fetch story %q: %w", req.Slug, err)
	}

	s.warmCaches(ctx, story)

	if err := s.controller.SetStory(ctx, *story); err != nil {
		return s.controller.State(), err
	}

	if req.Chapter > 0 {
		if err := s.controller.SetChapter(req.Chapter); err != nil {
			return s.controller.State(), err
		}
	}

	return s.controller.State(), nil
}

// warmCaches indexes the story for search and caches its cover. Both are best
// effort; a failed side cache never fails a load.
func (s *PlayerService) warmCaches(ctx context.Context, story *domain.Story) {
	if s.index != nil {
		if err := s.index.IndexStory(story); err != nil {
			s.logger.Warn("failed to index story", "slug", story.Slug, "error", err)
		}
	}
	if s.covers != nil && story.CoverURL != "" {
		if _, err := s.covers.Ensure(ctx, story.ID, story.CoverURL); err != nil {
			s.logger.Warn("failed to cache cover", "story_id", story.ID, "error", err)
		}
	}
}

// Play starts or resumes playback.
func (s *PlayerService) Play() player.SessionState {
	s.controller.Play()
	return s.controller.State()
}

// Pause halts playback and persists an eager checkpoint.
func (s *PlayerService) Pause() player.SessionState {
	s.controller.Pause()
	return s.controller.State()
}

// TogglePlay flips between playing and paused.
func (s *PlayerService) TogglePlay() player.SessionState {
	s.controller.TogglePlay()
	return s.controller.State()
}

// Seek positions playback at an absolute offset.
func (s *PlayerService) Seek(req SeekRequest) (player.SessionState, error) {
	if err := s.validator.Validate(req); err != nil {
		return s.controller.State(), err
	}
	s.controller.Seek(req.Seconds)
	return s.controller.State(), nil
}

// Skip moves playback relative to the current position.
func (s *PlayerService) Skip(req SkipRequest) (player.SessionState, error) {
	if err := s.validator.Validate(req); err != nil {
		return s.controller.State(), err
	}
	s.controller.Skip(req.Delta)
	return s.controller.State(), nil
}

// SetChapter switches to the requested chapter and arms auto-play.
func (s *PlayerService) SetChapter(req ChapterRequest) (player.SessionState, error) {
	if err := s.validator.Validate(req); err != nil {
		return s.controller.State(), err
	}
	if err := s.controller.SetChapter(req.Chapter); err != nil {
		return s.controller.State(), err
	}
	return s.controller.State(), nil
}

// NextChapter advances to the following chapter.
func (s *PlayerService) NextChapter() (player.SessionState, error) {
	if err := s.controller.NextChapter(); err != nil {
		return s.controller.State(), err
	}
	return s.controller.State(), nil
}

// PreviousChapter steps back one chapter.
func (s *PlayerService) PreviousChapter() (player.SessionState, error) {
	if err := s.controller.PreviousChapter(); err != nil {
		return s.controller.State(), err
	}
	return s.controller.State(), nil
}

// SetRate changes the playback rate, subject to the configured rate set.
func (s *PlayerService) SetRate(req RateRequest) (player.SessionState, error) {
	if err := s.validator.Validate(req); err != nil {
		return s.controller.State(), err
	}
	if err := s.controller.SetPlaybackRate(req.Rate); err != nil {
		return s.controller.State(), err
	}
	return s.controller.State(), nil
}

// SetVolume changes the playback volume.
func (s *PlayerService) SetVolume(req VolumeRequest) (player.SessionState, error) {
	if err := s.validator.Validate(req); err != nil {
		return s.controller.State(), err
	}
	s.controller.SetVolume(req.Volume)
	return s.controller.State(), nil
}

// ToggleSpeedMenu opens or closes the speed selection menu.
func (s *PlayerService) ToggleSpeedMenu() player.SessionState {
	s.controller.ToggleSpeedMenu()
	return s.controller.State()
}

// Resume accepts the pending resume offer.
func (s *PlayerService) Resume() player.SessionState {
	s.controller.HandleResume()
	return s.controller.State()
}

// DismissResume hides the resume offer without acting on it.
func (s *PlayerService) DismissResume() player.SessionState {
	s.controller.HideResumeToast()
	return s.controller.State()
}

// Reset unloads the session back to its initial state.
func (s *PlayerService) Reset() player.SessionState {
	s.controller.Reset()
	return s.controller.State()
}
