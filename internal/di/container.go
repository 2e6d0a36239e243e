// Package di provides dependency injection configuration for the playback
// daemon.
package di

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/audiotruyenapp/audiotruyen-player/internal/di/providers"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSSEManager)

	// Storage layer
	do.Provide(injector, providers.ProvideProgressStore)
	do.Provide(injector, providers.ProvideJournal)
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideCoverCache)

	// Playback session
	do.Provide(injector, providers.ProvideMediaElement)
	do.Provide(injector, providers.ProvideController)

	// Catalog and services
	do.Provide(injector, providers.ProvideCatalogClient)
	do.Provide(injector, providers.ProvideValidator)
	do.Provide(injector, providers.ProvidePlayerService)
	do.Provide(injector, providers.ProvideLibraryService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)
	do.Provide(injector, providers.ProvideMDNSService)

	return injector
}

// Bootstrap initializes all services and returns the first construction
// error. Invoking the HTTP server and mDNS handles transitively constructs
// everything else.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return fmt.Errorf("start http server: %w", err)
	}
	if _, err := do.Invoke[*providers.MDNSServiceHandle](injector); err != nil {
		return fmt.Errorf("start mDNS: %w", err)
	}
	return nil
}
