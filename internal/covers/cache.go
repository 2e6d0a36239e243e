// Package covers downloads story cover art and derives BlurHash placeholders
// so continue-listening widgets can paint before the real cover loads.
package covers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

const (
	// maxCoverSize limits download size to prevent memory exhaustion.
	maxCoverSize = 10 * 1024 * 1024

	downloadTimeout = 30 * time.Second
)

// Cache downloads covers on demand and keeps the bytes plus the computed
// BlurHash on disk. Safe for concurrent use.
type Cache struct {
	dir        string
	httpClient *http.Client
	logger     *slog.Logger

	mu     sync.Mutex
	hashes map[int64]string
}

// NewCache creates a cover cache rooted at dataPath/covers.
func NewCache(dataPath string, logger *slog.Logger) (*Cache, error) {
	dir := filepath.Join(dataPath, "covers")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create covers dir: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Cache{
		dir:        dir,
		httpClient: &http.Client{Timeout: downloadTimeout},
		logger:     logger,
		hashes:     make(map[int64]string),
	}, nil
}

// Ensure makes sure the story's cover is cached and returns its BlurHash.
// Already-cached covers return without network traffic.
func (c *Cache) Ensure(ctx context.Context, storyID int64, url string) (string, error) {
	if hash, ok := c.BlurHash(storyID); ok {
		return hash, nil
	}
	if url == "" {
		return "", fmt.Errorf("story %d has no cover URL", storyID)
	}

	data, err := c.download(ctx, url)
	if err != nil {
		return "", err
	}

	hash, err := computeBlurHash(data)
	if err != nil {
		return "", fmt.Errorf("compute blurhash for story %d: %w", storyID, err)
	}

	if err := os.WriteFile(c.coverPath(storyID), data, 0644); err != nil {
		return "", fmt.Errorf("store cover: %w", err)
	}
	if err := os.WriteFile(c.hashPath(storyID), []byte(hash), 0644); err != nil {
		c.logger.Warn("failed to persist blurhash", "story_id", storyID, "error", err)
	}

	c.mu.Lock()
	c.hashes[storyID] = hash
	c.mu.Unlock()

	c.logger.Info("cached story cover", "story_id", storyID, "bytes", len(data))
	return hash, nil
}

// BlurHash returns the cached placeholder for a story, checking memory first
// and the sidecar file second.
func (c *Cache) BlurHash(storyID int64) (string, bool) {
	c.mu.Lock()
	hash, ok := c.hashes[storyID]
	c.mu.Unlock()
	if ok {
		return hash, true
	}

	data, err := os.ReadFile(c.hashPath(storyID))
	if err != nil || len(data) == 0 {
		return "", false
	}

	hash = string(data)
	c.mu.Lock()
	c.hashes[storyID] = hash
	c.mu.Unlock()
	return hash, true
}

// CoverPath returns the on-disk path of a cached cover, if present.
func (c *Cache) CoverPath(storyID int64) (string, bool) {
	path := c.coverPath(storyID)
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

func (c *Cache) download(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download cover: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cover download failed: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCoverSize))
	if err != nil {
		return nil, fmt.Errorf("read cover data: %w", err)
	}
	return data, nil
}

func (c *Cache) coverPath(storyID int64) string {
	return filepath.Join(c.dir, strconv.FormatInt(storyID, 10)+".img")
}

func (c *Cache) hashPath(storyID int64) string {
	return filepath.Join(c.dir, strconv.FormatInt(storyID, 10)+".blurhash")
}
