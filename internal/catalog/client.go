// Package catalog talks to the remote story catalog. The catalog is an opaque
// REST collaborator; this client maps its wire shapes into domain types and
// keeps outbound traffic under a rate limit.
package catalog

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/time/rate"

	"github.com/audiotruyenapp/audiotruyen-player/internal/config"
	"github.com/audiotruyenapp/audiotruyen-player/internal/domain"
	apperrors "github.com/audiotruyenapp/audiotruyen-player/internal/errors"
)

// Client provides access to the story catalog API.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      *slog.Logger
}

// NewClient creates a catalog client from configuration.
func NewClient(cfg config.CatalogConfig, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		logger:      logger,
	}
}

// StoryBySlug fetches a full story record including its chapter list.
func (c *Client) StoryBySlug(ctx context.Context, slug string) (*domain.Story, error) {
	var resp storyResponse
	if err := c.get(ctx, "/v1/stories/"+url.PathEscape(slug), nil, &resp); err != nil {
		return nil, err
	}

	story := resp.toDomain(c.renderDescription(resp.Description))
	if story.ID == 0 {
		return nil, apperrors.Upstream(fmt.Sprintf("catalog returned story %q without an id", slug))
	}
	return &story, nil
}

// ListStories fetches one page of the story listing. Page numbers start at 1;
// out-of-range values are left for the catalog to reject.
func (c *Client) ListStories(ctx context.Context, page, perPage int) (*domain.StoryPage, error) {
	if page < 1 {
		page = 1
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	if perPage > 0 {
		query.Set("per_page", strconv.Itoa(perPage))
	}

	var resp storyListResponse
	if err := c.get(ctx, "/v1/stories", query, &resp); err != nil {
		return nil, err
	}
	return c.toStoryPage(&resp), nil
}

// StoriesByCategory fetches one page of a category's stories.
func (c *Client) StoriesByCategory(ctx context.Context, categorySlug string, page int) (*domain.StoryPage, error) {
	if page < 1 {
		page = 1
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))

	var resp storyListResponse
	if err := c.get(ctx, "/v1/categories/"+url.PathEscape(categorySlug)+"/stories", query, &resp); err != nil {
		return nil, err
	}
	return c.toStoryPage(&resp), nil
}

// ListCategories fetches the category facets.
func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var resp categoryListResponse
	if err := c.get(ctx, "/v1/categories", nil, &resp); err != nil {
		return nil, err
	}

	categories := make([]domain.Category, 0, len(resp.Categories))
	for _, cat := range resp.Categories {
		categories = append(categories, domain.Category{ID: cat.ID, Slug: cat.Slug, Name: cat.Name})
	}
	return categories, nil
}

// get performs one rate-limited GET and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	c.logger.Debug("catalog request", "url", reqURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Upstream("catalog request failed").WithCause(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.NotFoundf("catalog resource %s not found", path)
	case resp.StatusCode != http.StatusOK:
		return apperrors.Upstream(fmt.Sprintf("catalog returned status %d for %s", resp.StatusCode, path))
	}

	if err := json.UnmarshalRead(resp.Body, out); err != nil {
		return apperrors.Upstream("decode catalog response").WithCause(err)
	}
	return nil
}

func (c *Client) toStoryPage(resp *storyListResponse) *domain.StoryPage {
	page := &domain.StoryPage{
		Page:       resp.Page,
		PerPage:    resp.PerPage,
		TotalPages: resp.TotalPages,
		Total:      resp.Total,
	}
	for i := range resp.Stories {
		page.Stories = append(page.Stories, resp.Stories[i].toDomain(c.renderDescription(resp.Stories[i].Description)))
	}
	return page
}

// renderDescription converts the catalog's HTML description to markdown at
// the ingest boundary. Conversion failures fall back to the raw text rather
// than dropping the description.
func (c *Client) renderDescription(html string) string {
	if html == "" || !strings.Contains(html, "<") {
		return html
	}

	md, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		c.logger.Warn("failed to convert story description", "error", err)
		return html
	}
	return strings.TrimSpace(md)
}
