package providers

import (
	"context"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/audiotruyenapp/audiotruyen-player/internal/config"
	"github.com/audiotruyenapp/audiotruyen-player/internal/covers"
	"github.com/audiotruyenapp/audiotruyen-player/internal/history"
	"github.com/audiotruyenapp/audiotruyen-player/internal/logger"
	"github.com/audiotruyenapp/audiotruyen-player/internal/progress"
	"github.com/audiotruyenapp/audiotruyen-player/internal/search"
	"github.com/audiotruyenapp/audiotruyen-player/internal/sse"
)

// SSEManagerHandle wraps the SSE manager with its context for lifecycle
// management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{Manager: manager, cancel: cancel}, nil
}

// ProgressStoreHandle wraps the checkpoint store with shutdown capability.
// DB is nil when durable storage is disabled; Store always works.
type ProgressStoreHandle struct {
	progress.Store
	db *progress.DB
}

// Shutdown implements do.Shutdownable.
func (h *ProgressStoreHandle) Shutdown() error {
	if h.db != nil {
		return h.db.Close()
	}
	return nil
}

// ProvideProgressStore provides the checkpoint store. Without a configured
// data path it degrades to the no-op store.
func ProvideProgressStore(i do.Injector) (*ProgressStoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Storage.DataPath == "" {
		log.Warn("no data path configured, playback progress will not be saved")
		return &ProgressStoreHandle{Store: progress.NewNoop()}, nil
	}

	db, err := progress.Open(filepath.Join(cfg.Storage.DataPath, "progress"), log.Logger)
	if err != nil {
		return nil, err
	}

	return &ProgressStoreHandle{Store: db, db: db}, nil
}

// JournalHandle wraps the listening journal with shutdown capability.
// Journal is nil when durable storage is disabled.
type JournalHandle struct {
	Journal *history.Journal
}

// Shutdown implements do.Shutdownable.
func (h *JournalHandle) Shutdown() error {
	if h.Journal != nil {
		return h.Journal.Close()
	}
	return nil
}

// ProvideJournal provides the listening history journal.
func ProvideJournal(i do.Injector) (*JournalHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Storage.DataPath == "" {
		return &JournalHandle{}, nil
	}

	journal, err := history.Open(filepath.Join(cfg.Storage.DataPath, "history.db"), log.Logger)
	if err != nil {
		return nil, err
	}

	return &JournalHandle{Journal: journal}, nil
}

// SearchIndexHandle wraps the search index with shutdown capability.
// Index is nil when durable storage is disabled.
type SearchIndexHandle struct {
	Index *search.StoryIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	if h.Index != nil {
		return h.Index.Close()
	}
	return nil
}

// ProvideSearchIndex provides the Bleve story index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Storage.DataPath == "" {
		log.Warn("no data path configured, local story search is disabled")
		return &SearchIndexHandle{}, nil
	}

	index, err := search.New(search.Options{
		DataPath: cfg.Storage.DataPath,
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.Count()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{Index: index}, nil
}

// CoverCacheHandle holds the cover cache. Cache is nil when durable storage
// is disabled.
type CoverCacheHandle struct {
	Cache *covers.Cache
}

// ProvideCoverCache provides the cover art cache.
func ProvideCoverCache(i do.Injector) (*CoverCacheHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Storage.DataPath == "" {
		return &CoverCacheHandle{}, nil
	}

	cache, err := covers.NewCache(cfg.Storage.DataPath, log.Logger)
	if err != nil {
		return nil, err
	}

	return &CoverCacheHandle{Cache: cache}, nil
}
