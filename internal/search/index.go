// Package search maintains a local full-text index over catalog stories.
// Titles and authors are indexed twice, raw and diacritic-folded, so both
// accented and plain-ASCII Vietnamese queries land on the same stories.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/audiotruyenapp/audiotruyen-player/internal/domain"
)

// mappingVersion is incremented whenever the index mapping changes, which
// triggers a rebuild on startup.
const mappingVersion = "2"

// StoryIndex wraps a Bleve index of catalog stories.
// All public methods are safe for concurrent use.
type StoryIndex struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the story index.
type Options struct {
	DataPath string
	Logger   *slog.Logger
}

// Hit is one scored search result.
type Hit struct {
	StoryID int64   `json:"story_id"`
	Slug    string  `json:"slug"`
	Title   string  `json:"title"`
	Author  string  `json:"author,omitempty"`
	Score   float64 `json:"score"`
}

// Result is a scored search response, most relevant first.
type Result struct {
	Query  string `json:"query"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
	Hits   []Hit  `json:"hits"`
}

// New creates or opens a story index under opts.DataPath. An index with a
// stale mapping version or one that fails to open is discarded and recreated;
// the catalog is the source of truth, the index is always rebuildable.
func New(opts Options) (*StoryIndex, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	indexPath := filepath.Join(opts.DataPath, "stories.bleve")
	versionPath := filepath.Join(opts.DataPath, "stories.version")

	var index bleve.Index
	needsRebuild := false

	indexExists := false
	if _, statErr := os.Stat(indexPath); statErr == nil {
		indexExists = true
	}

	if indexExists {
		existingVersion, readErr := os.ReadFile(versionPath)
		if readErr != nil || string(existingVersion) != mappingVersion {
			logger.Info("search index mapping outdated, will rebuild",
				"new_version", mappingVersion)
			needsRebuild = true
		}
	}

	if !needsRebuild && indexExists {
		var err error
		index, err = bleve.Open(indexPath)
		if err != nil {
			logger.Warn("failed to open existing index, will recreate",
				"path", indexPath, "error", err)
			needsRebuild = true
		}
	}

	if needsRebuild {
		if err := os.RemoveAll(indexPath); err != nil {
			return nil, fmt.Errorf("remove old index: %w", err)
		}
		index = nil
	}

	if index == nil {
		var err error
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if err := os.WriteFile(versionPath, []byte(mappingVersion), 0644); err != nil {
			logger.Warn("failed to write search version file", "error", err)
		}
		logger.Info("created story search index", "path", indexPath)
	} else {
		logger.Info("opened story search index", "path", indexPath)
	}

	return &StoryIndex{index: index, path: indexPath, logger: logger}, nil
}

// Close closes the index and releases resources.
func (s *StoryIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexStory adds or replaces one story.
func (s *StoryIndex) IndexStory(story *domain.Story) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Index(docID(story.ID), storyDoc(story))
}

// IndexStories adds or replaces stories in one batch.
func (s *StoryIndex) IndexStories(stories []domain.Story) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batch := s.index.NewBatch()
	for i := range stories {
		if err := batch.Index(docID(stories[i].ID), storyDoc(&stories[i])); err != nil {
			return fmt.Errorf("batch index story %d: %w", stories[i].ID, err)
		}
	}
	return s.index.Batch(batch)
}

// DeleteStory removes one story from the index.
func (s *StoryIndex) DeleteStory(storyID int64) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(docID(storyID))
}

// Count returns the number of indexed stories.
func (s *StoryIndex) Count() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Search runs a scored query, most relevant first. A non-positive limit
// defaults to 20.
func (s *StoryIndex) Search(ctx context.Context, queryText string, limit int) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	req := bleve.NewSearchRequestOptions(buildQuery(queryText), limit, 0, false)
	req.Fields = []string{"story_id", "slug", "title", "author"}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &Result{
		Query:  queryText,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(res.Hits)),
	}
	for _, hit := range res.Hits {
		h := Hit{Score: hit.Score}
		if v, ok := hit.Fields["story_id"].(float64); ok {
			h.StoryID = int64(v)
		}
		if v, ok := hit.Fields["slug"].(string); ok {
			h.Slug = v
		}
		if v, ok := hit.Fields["title"].(string); ok {
			h.Title = v
		}
		if v, ok := hit.Fields["author"].(string); ok {
			h.Author = v
		}
		result.Hits = append(result.Hits, h)
	}
	return result, nil
}

// buildQuery combines exact, folded, fuzzy, and prefix matches into one
// disjunction so the strongest signal wins on score.
func buildQuery(queryText string) query.Query {
	trimmed := strings.TrimSpace(queryText)
	if trimmed == "" {
		return bleve.NewMatchAllQuery()
	}
	folded := Fold(trimmed)

	var queries []query.Query

	titleMatch := bleve.NewMatchQuery(trimmed)
	titleMatch.SetField("title")
	titleMatch.SetBoost(3.0)
	queries = append(queries, titleMatch)

	titleFolded := bleve.NewMatchQuery(folded)
	titleFolded.SetField("title_folded")
	titleFolded.SetBoost(2.0)
	queries = append(queries, titleFolded)

	authorMatch := bleve.NewMatchQuery(trimmed)
	authorMatch.SetField("author")
	authorMatch.SetBoost(1.5)
	queries = append(queries, authorMatch)

	authorFolded := bleve.NewMatchQuery(folded)
	authorFolded.SetField("author_folded")
	queries = append(queries, authorFolded)

	fuzzy := bleve.NewFuzzyQuery(folded)
	fuzzy.SetFuzziness(1)
	fuzzy.SetField("title_folded")
	fuzzy.SetBoost(0.8)
	queries = append(queries, fuzzy)

	if len(folded) >= 2 {
		prefix := bleve.NewPrefixQuery(folded)
		prefix.SetField("title_folded")
		prefix.SetBoost(0.5)
		queries = append(queries, prefix)
	}

	return bleve.NewDisjunctionQuery(queries...)
}

// buildIndexMapping creates the Bleve mapping for story documents.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = simple.Name

	docMapping := bleve.NewDocumentMapping()

	titleField := bleve.NewTextFieldMapping()
	titleField.Analyzer = simple.Name
	titleField.Store = true
	docMapping.AddFieldMappingsAt("title", titleField)

	titleFoldedField := bleve.NewTextFieldMapping()
	titleFoldedField.Analyzer = simple.Name
	titleFoldedField.Store = false
	docMapping.AddFieldMappingsAt("title_folded", titleFoldedField)

	authorField := bleve.NewTextFieldMapping()
	authorField.Analyzer = simple.Name
	authorField.Store = true
	docMapping.AddFieldMappingsAt("author", authorField)

	authorFoldedField := bleve.NewTextFieldMapping()
	authorFoldedField.Analyzer = simple.Name
	authorFoldedField.Store = false
	docMapping.AddFieldMappingsAt("author_folded", authorFoldedField)

	slugField := bleve.NewTextFieldMapping()
	slugField.Analyzer = keyword.Name
	slugField.Store = true
	docMapping.AddFieldMappingsAt("slug", slugField)

	categoriesField := bleve.NewTextFieldMapping()
	categoriesField.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("categories", categoriesField)

	storyIDField := bleve.NewNumericFieldMapping()
	storyIDField.Store = true
	docMapping.AddFieldMappingsAt("story_id", storyIDField)

	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}

// storyDoc flattens a story into the indexed field map.
func storyDoc(story *domain.Story) map[string]any {
	categories := make([]string, 0, len(story.Categories))
	for _, c := range story.Categories {
		categories = append(categories, c.Slug)
	}
	return map[string]any{
		"story_id":      story.ID,
		"slug":          story.Slug,
		"title":         story.Title,
		"title_folded":  Fold(story.Title),
		"author":        story.Author,
		"author_folded": Fold(story.Author),
		"categories":    categories,
	}
}

func docID(storyID int64) string {
	return strconv.FormatInt(storyID, 10)
}
