package domain

import "time"

// PlaybackProgress is a resumable checkpoint for one story.
// Each save replaces the whole record; there are no partial updates.
// The same payload is also written to a single global "last played" slot that
// powers cross-page continue-listening affordances.
type PlaybackProgress struct {
	StoryID          int64   `json:"story_id"`
	ChapterNumber    int     `json:"chapter_number"`
	TimestampSeconds float64 `json:"timestamp_seconds"`
	// UpdatedAt is epoch milliseconds of the save.
	UpdatedAt int64 `json:"updated_at"`

	// Denormalized story fields so widgets can render without a catalog fetch.
	StoryTitle    string `json:"story_title,omitempty"`
	StorySlug     string `json:"story_slug,omitempty"`
	CoverURL      string `json:"cover_url,omitempty"`
	CoverBlurHash string `json:"cover_blurhash,omitempty"`
}

// Touch stamps the record with the current time.
func (p *PlaybackProgress) Touch() {
	p.UpdatedAt = time.Now().UnixMilli()
}

// UpdatedTime returns UpdatedAt as a time.Time.
func (p *PlaybackProgress) UpdatedTime() time.Time {
	return time.UnixMilli(p.UpdatedAt)
}

// WorthResuming reports whether the checkpoint clears the resume-offer policy:
// progress past the first minChapter chapters, or more than minSeconds into a
// chapter. Anything below both thresholds is trivial progress near the start
// and not worth interrupting the listener for.
func (p *PlaybackProgress) WorthResuming(minChapter int, minSeconds float64) bool {
	return p.ChapterNumber > minChapter || p.TimestampSeconds > minSeconds
}
