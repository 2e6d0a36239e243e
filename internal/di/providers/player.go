package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/audiotruyenapp/audiotruyen-player/internal/catalog"
	"github.com/audiotruyenapp/audiotruyen-player/internal/config"
	"github.com/audiotruyenapp/audiotruyen-player/internal/logger"
	"github.com/audiotruyenapp/audiotruyen-player/internal/media"
	"github.com/audiotruyenapp/audiotruyen-player/internal/player"
	"github.com/audiotruyenapp/audiotruyen-player/internal/service"
	"github.com/audiotruyenapp/audiotruyen-player/internal/validation"
)

// elementTick is the clock resolution of the simulated media element.
const elementTick = 250 * time.Millisecond

// MediaElementHandle wraps the media element with its clock context.
type MediaElementHandle struct {
	*media.Sim
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *MediaElementHandle) Shutdown() error {
	h.cancel()
	return nil
}

// ProvideMediaElement provides the playback engine.
func ProvideMediaElement(i do.Injector) (*MediaElementHandle, error) {
	sim := media.NewSim(media.SimOptions{
		LoadDelay: 200 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go sim.Start(ctx, elementTick)

	return &MediaElementHandle{Sim: sim, cancel: cancel}, nil
}

// ControllerHandle wraps the session controller with its run context.
type ControllerHandle struct {
	*player.Controller
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *ControllerHandle) Shutdown() error {
	h.Stop()
	h.cancel()
	return nil
}

// ProvideController provides the playback session controller.
func ProvideController(i do.Injector) (*ControllerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	element := do.MustInvoke[*MediaElementHandle](i)
	store := do.MustInvoke[*ProgressStoreHandle](i)
	journal := do.MustInvoke[*JournalHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	opts := player.Options{
		Element: element.Sim,
		Store:   store.Store,
		Emitter: sseHandle.Manager,
		Logger:  log.Logger,
		Policy:  cfg.Player,
	}
	if journal.Journal != nil {
		opts.Journal = journal.Journal
	}

	controller := player.NewController(opts)

	ctx, cancel := context.WithCancel(context.Background())
	controller.Start(ctx)

	log.Info("Playback session controller started")

	return &ControllerHandle{Controller: controller, cancel: cancel}, nil
}

// ProvideCatalogClient provides the remote catalog client.
func ProvideCatalogClient(i do.Injector) (*catalog.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return catalog.NewClient(cfg.Catalog, log.Logger), nil
}

// ProvideValidator provides the request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvidePlayerService provides the playback session service.
func ProvidePlayerService(i do.Injector) (*service.PlayerService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	controller := do.MustInvoke[*ControllerHandle](i)
	client := do.MustInvoke[*catalog.Client](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	coverHandle := do.MustInvoke[*CoverCacheHandle](i)
	validator := do.MustInvoke[*validation.Validator](i)

	var index service.Searcher
	if indexHandle.Index != nil {
		index = indexHandle.Index
	}
	var coverCache service.CoverCache
	if coverHandle.Cache != nil {
		coverCache = coverHandle.Cache
	}

	return service.NewPlayerService(controller.Controller, client, index, coverCache, validator, log.Logger), nil
}

// ProvideLibraryService provides the browsing service.
func ProvideLibraryService(i do.Injector) (*service.LibraryService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	client := do.MustInvoke[*catalog.Client](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	store := do.MustInvoke[*ProgressStoreHandle](i)
	journalHandle := do.MustInvoke[*JournalHandle](i)
	coverHandle := do.MustInvoke[*CoverCacheHandle](i)

	var index service.Searcher
	if indexHandle.Index != nil {
		index = indexHandle.Index
	}
	var journal service.HistoryReader
	if journalHandle.Journal != nil {
		journal = journalHandle.Journal
	}
	var coverCache service.CoverCache
	if coverHandle.Cache != nil {
		coverCache = coverHandle.Cache
	}

	return service.NewLibraryService(client, index, store.Store, journal, coverCache, log.Logger), nil
}
