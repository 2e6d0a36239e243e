// Package progress persists playback checkpoints: one record per story plus a
// single global "last played" slot for cross-page continue-listening widgets.
package progress

import (
	"context"

	"github.com/audiotruyenapp/audiotruyen-player/internal/domain"
	apperrors "github.com/audiotruyenapp/audiotruyen-player/internal/errors"
)

// ErrProgressNotFound signals no stored checkpoint. Malformed stored data is
// reported the same way; the read path never fails on bad records.
var ErrProgressNotFound = apperrors.NotFound("playback progress not found")

// Store is the checkpoint persistence contract.
//
// Writes are whole-record overwrites: SaveProgress replaces both the
// per-story record and the global last-played slot in one operation, with no
// merging. The newest save wins.
type Store interface {
	// SaveProgress stamps the record with the current time and writes it
	// under the story key and the last-played slot.
	SaveProgress(ctx context.Context, p domain.PlaybackProgress) error
	// GetProgress returns the checkpoint for a story or ErrProgressNotFound.
	GetProgress(ctx context.Context, storyID int64) (*domain.PlaybackProgress, error)
	// GetLastPlayed returns the global last-played checkpoint or ErrProgressNotFound.
	GetLastPlayed(ctx context.Context) (*domain.PlaybackProgress, error)
	// ClearProgress removes one story's checkpoint. Clearing a story that has
	// none is not an error.
	ClearProgress(ctx context.Context, storyID int64) error
	// ClearAll removes every checkpoint including the last-played slot.
	ClearAll(ctx context.Context) error
	// AllProgress returns every per-story checkpoint, most recently updated
	// first.
	AllProgress(ctx context.Context) ([]*domain.PlaybackProgress, error)
}

// Noop is the Store used when no durable storage medium is configured.
// Every operation degrades to a no-op or empty return; callers must tolerate
// absent results unconditionally.
type Noop struct{}

var _ Store = Noop{}

// NewNoop creates a no-op store.
func NewNoop() Noop { return Noop{} }

// SaveProgress implements Store as a no-op.
func (Noop) SaveProgress(context.Context, domain.PlaybackProgress) error { return nil }

// GetProgress implements Store; there is never a stored record.
func (Noop) GetProgress(context.Context, int64) (*domain.PlaybackProgress, error) {
	return nil, ErrProgressNotFound
}

// GetLastPlayed implements Store; there is never a stored record.
func (Noop) GetLastPlayed(context.Context) (*domain.PlaybackProgress, error) {
	return nil, ErrProgressNotFound
}

// ClearProgress implements Store as a no-op.
func (Noop) ClearProgress(context.Context, int64) error { return nil }

// ClearAll implements Store as a no-op.
func (Noop) ClearAll(context.Context) error { return nil }

// AllProgress implements Store; the result is always empty.
func (Noop) AllProgress(context.Context) ([]*domain.PlaybackProgress, error) {
	return nil, nil
}
