package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/audiotruyenapp/audiotruyen-player/internal/api"
	"github.com/audiotruyenapp/audiotruyen-player/internal/config"
	"github.com/audiotruyenapp/audiotruyen-player/internal/logger"
	"github.com/audiotruyenapp/audiotruyen-player/internal/mdns"
	"github.com/audiotruyenapp/audiotruyen-player/internal/service"
	"github.com/audiotruyenapp/audiotruyen-player/internal/sse"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts it in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	playerService := do.MustInvoke[*service.PlayerService](i)
	libraryService := do.MustInvoke[*service.LibraryService](i)

	sseHandler := sse.NewHandler(sseHandle.Manager, log.Logger)
	handler := api.NewServer(playerService, libraryService, sseHandler, cfg.Server.Name, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}

// MDNSServiceHandle wraps mdns.Service with Shutdownable.
type MDNSServiceHandle struct {
	*mdns.Service
	started bool
}

// Shutdown implements do.Shutdownable.
func (h *MDNSServiceHandle) Shutdown() error {
	if h.started && h.Service != nil {
		h.Stop()
	}
	return nil
}

// ProvideMDNSService provides the mDNS advertisement service.
func ProvideMDNSService(i do.Injector) (*MDNSServiceHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	handle := &MDNSServiceHandle{Service: mdns.NewService(log.Logger)}

	if !cfg.Server.AdvertiseMDNS {
		log.Info("mDNS advertisement disabled")
		return handle, nil
	}

	port := 8080
	fmt.Sscanf(cfg.Server.Port, "%d", &port)

	if err := handle.Start(cfg.Server.Name, port); err != nil {
		// Non-fatal: the daemon works without discovery.
		log.Warn("mDNS advertisement unavailable", "error", err)
		return handle, nil
	}
	handle.started = true

	return handle, nil
}
