// Package providers contains dependency injection providers for the playback
// daemon.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/audiotruyenapp/audiotruyen-player/internal/config"
	"github.com/audiotruyenapp/audiotruyen-player/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting AudioTruyen player daemon",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"data_path", cfg.Storage.DataPath,
		"catalog_url", cfg.Catalog.BaseURL,
	)

	return log, nil
}
