package player

import "github.com/audiotruyenapp/audiotruyen-player/internal/domain"

// Emitter receives controller events for fan-out to connected clients.
type Emitter interface {
	Emit(event any)
}

// nopEmitter drops every event.
type nopEmitter struct{}

func (nopEmitter) Emit(any) {}

// StateChanged carries a full session snapshot. Emitted after every state
// transition, including time updates.
type StateChanged struct {
	State SessionState `json:"state"`
}

// EventName identifies the event on the wire.
func (StateChanged) EventName() string { return "player.state" }

// ChapterChanged announces a chapter switch, whether user-initiated or
// auto-advance.
type ChapterChanged struct {
	StoryID int64 `json:"story_id"`
	Chapter int   `json:"chapter"`
}

func (ChapterChanged) EventName() string { return "chapter.changed" }

// CheckpointSaved announces a persisted playback checkpoint.
type CheckpointSaved struct {
	Progress domain.PlaybackProgress `json:"progress"`
}

func (CheckpointSaved) EventName() string { return "checkpoint.saved" }

// ResumeOffered announces a resume toast with the checkpoint backing it.
type ResumeOffered struct {
	Progress domain.PlaybackProgress `json:"progress"`
}

func (ResumeOffered) EventName() string { return "resume.offered" }

// ResumeHidden announces the resume toast was dismissed, by the user or by
// timeout.
type ResumeHidden struct{}

func (ResumeHidden) EventName() string { return "resume.hidden" }
