package domain

import "time"

// ListeningEvent is one immutable journal entry of listening activity.
// Events are append-only; aggregates derive from them.
type ListeningEvent struct {
	ID            string    `json:"id"`
	StoryID       int64     `json:"story_id"`
	ChapterNumber int       `json:"chapter_number"`
	StartSeconds  float64   `json:"start_seconds"`
	EndSeconds    float64   `json:"end_seconds"`
	PlaybackRate  float64   `json:"playback_rate"`
	StartedAt     time.Time `json:"started_at"`
	EndedAt       time.Time `json:"ended_at"`
	CreatedAt     time.Time `json:"created_at"`
}

// ContentSeconds returns the span of story audio covered by the event.
func (e *ListeningEvent) ContentSeconds() float64 {
	return e.EndSeconds - e.StartSeconds
}

// WallSeconds returns the elapsed wall-clock time. This differs from
// ContentSeconds when playback rate != 1.0: 30 min of content at 2x
// takes 15 min of wall time.
func (e *ListeningEvent) WallSeconds() float64 {
	if e.PlaybackRate == 0 {
		return e.ContentSeconds()
	}
	return e.ContentSeconds() / e.PlaybackRate
}

// StoryListenStats aggregates journal entries for one story.
type StoryListenStats struct {
	StoryID             int64     `json:"story_id"`
	EventCount          int       `json:"event_count"`
	TotalContentSeconds float64   `json:"total_content_seconds"`
	LastListenedAt      time.Time `json:"last_listened_at"`
}
