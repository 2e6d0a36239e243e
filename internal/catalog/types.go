package catalog

import "github.com/audiotruyenapp/audiotruyen-player/internal/domain"

// Wire shapes of the remote catalog API. These stay private to the package;
// everything crossing the boundary is mapped to domain types.

type storyResponse struct {
	ID          int64              `json:"id"`
	Slug        string             `json:"slug"`
	Title       string             `json:"title"`
	Author      string             `json:"author"`
	CoverURL    string             `json:"cover_url"`
	Description string             `json:"description"`
	Categories  []categoryResponse `json:"categories"`
	Chapters    []chapterResponse  `json:"chapters"`
}

type chapterResponse struct {
	Number   int    `json:"number"`
	Title    string `json:"title"`
	AudioURL string `json:"audio_url"`
}

type categoryResponse struct {
	ID   int64  `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

type storyListResponse struct {
	Stories    []storyResponse `json:"stories"`
	Page       int             `json:"page"`
	PerPage    int             `json:"per_page"`
	TotalPages int             `json:"total_pages"`
	Total      int             `json:"total"`
}

type categoryListResponse struct {
	Categories []categoryResponse `json:"categories"`
}

func (r *storyResponse) toDomain(description string) domain.Story {
	story := domain.Story{
		ID:          r.ID,
		Slug:        r.Slug,
		Title:       r.Title,
		Author:      r.Author,
		CoverURL:    r.CoverURL,
		Description: description,
	}
	for _, c := range r.Categories {
		story.Categories = append(story.Categories, domain.Category{ID: c.ID, Slug: c.Slug, Name: c.Name})
	}
	for _, ch := range r.Chapters {
		story.Chapters = append(story.Chapters, domain.Chapter{
			Number:   ch.Number,
			Title:    ch.Title,
			AudioURL: ch.AudioURL,
		})
	}
	return story
}
