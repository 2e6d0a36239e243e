// Package player implements the playback session: the pure state reducer and
// the controller that binds it to a media element, persistence, and timers.
package player

import "github.com/audiotruyenapp/audiotruyen-player/internal/domain"

// SessionState is the live state of the single mounted playback session.
// It is mutated exclusively through Reduce and read as value snapshots.
//
// Invariant: CurrentAudioURL always equals the AudioURL of the chapter whose
// Number == SelectedChapter, or is empty when no such chapter exists. Every
// chapter-changing transition updates the pair atomically.
type SessionState struct {
	StoryID    int64            `json:"story_id"`
	StoryTitle string           `json:"story_title"`
	StorySlug  string           `json:"story_slug"`
	CoverURL   string           `json:"cover_url"`
	Chapters   []domain.Chapter `json:"chapters"`

	Playing     bool    `json:"playing"`
	CurrentTime float64 `json:"current_time"`
	Duration    float64 `json:"duration"`

	SelectedChapter int    `json:"selected_chapter"`
	CurrentAudioURL string `json:"current_audio_url"`

	PlaybackRate float64 `json:"playback_rate"`
	Volume       float64 `json:"volume"`

	SpeedMenuOpen bool `json:"speed_menu_open"`

	ShowResumeToast bool                     `json:"show_resume_toast"`
	ResumeData      *domain.PlaybackProgress `json:"resume_data,omitempty"`

	// PendingSeek is a seek target awaiting application once the media
	// resource becomes ready (resume-after-chapter-switch).
	PendingSeek *float64 `json:"pending_seek,omitempty"`
}

// InitialState returns the empty session state.
func InitialState() SessionState {
	return SessionState{
		PlaybackRate: 1.0,
		Volume:       1.0,
	}
}

// HasStory reports whether a story is loaded into the session.
func (s SessionState) HasStory() bool {
	return s.StoryID != 0
}

// SelectedChapterData returns the currently selected chapter, or nil when the
// selection does not resolve to a loaded chapter.
func (s SessionState) SelectedChapterData() *domain.Chapter {
	for i := range s.Chapters {
		if s.Chapters[i].Number == s.SelectedChapter {
			return &s.Chapters[i]
		}
	}
	return nil
}
