// Package domain contains the core data model for the audio-story player.
package domain

// Chapter is one playable installment of a story.
// Chapters are immutable once loaded and densely numbered from 1.
type Chapter struct {
	Number   int    `json:"number"`
	Title    string `json:"title"`
	AudioURL string `json:"audio_url"`
}

// Category is a browsing facet supplied by the catalog.
type Category struct {
	ID   int64  `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// Story is a complete audio story with its ordered chapter list.
type Story struct {
	ID          int64      `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Author      string     `json:"author,omitempty"`
	CoverURL    string     `json:"cover_url,omitempty"`
	Description string     `json:"description,omitempty"`
	Categories  []Category `json:"categories,omitempty"`
	Chapters    []Chapter  `json:"chapters"`
}

// ChapterByNumber returns the chapter with the given number, or nil if the
// number is not present in the chapter list.
func (s *Story) ChapterByNumber(number int) *Chapter {
	for i := range s.Chapters {
		if s.Chapters[i].Number == number {
			return &s.Chapters[i]
		}
	}
	return nil
}

// HasNextChapter reports whether a chapter follows the given number.
func (s *Story) HasNextChapter(number int) bool {
	return s.ChapterByNumber(number+1) != nil
}

// StoryPage is one page of a paginated story listing.
type StoryPage struct {
	Stories    []Story `json:"stories"`
	Page       int     `json:"page"`
	PerPage    int     `json:"per_page"`
	TotalPages int     `json:"total_pages"`
	Total      int     `json:"total"`
}
