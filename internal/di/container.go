// Package di wires qbm components with samber/do.
package di

import (
	"github.com/rs/zerolog"
	"github.com/samber/do/v2"

	"github.com/nikbrunner/qbm/internal/bookmarks"
	"github.com/nikbrunner/qbm/internal/config"
	"github.com/nikbrunner/qbm/internal/logger"
	"github.com/nikbrunner/qbm/internal/settings"
	"github.com/nikbrunner/qbm/internal/storage"
)

// NewContainer creates the DI container for cfg.
func NewContainer(cfg *config.Config) *do.RootScope {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.Provide(injector, ProvideLogger)
	do.Provide(injector, ProvideStorage)
	do.Provide(injector, ProvideSettings)
	do.Provide(injector, ProvideAggregator)

	return injector
}

// StoreHandle wraps the storage backend with shutdown capability.
type StoreHandle struct {
	storage.Storage
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (zerolog.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty,
	}), nil
}

// ProvideStorage opens the configured storage backend.
func ProvideStorage(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[zerolog.Logger](i)

	s, err := storage.Open(cfg.Backend, cfg.DataDir, log)
	if err != nil {
		return nil, err
	}

	log.Debug().Str("backend", cfg.Backend).Str("data_dir", cfg.DataDir).Msg("storage opened")
	return &StoreHandle{Storage: s}, nil
}

// ProvideSettings loads the settings file.
func ProvideSettings(i do.Injector) (*settings.FileSettings, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return settings.Load(cfg.SettingsPath())
}

// ProvideAggregator provides the bookmark aggregator.
func ProvideAggregator(i do.Injector) (*bookmarks.Aggregator, error) {
	store := do.MustInvoke[*StoreHandle](i)
	prefs := do.MustInvoke[*settings.FileSettings](i)
	log := do.MustInvoke[zerolog.Logger](i)

	return bookmarks.NewAggregator(bookmarks.AggregatorParams{
		Store:    store,
		Settings: prefs,
		Logger:   logger.Component(log, "bookmarks"),
	}), nil
}
