// Package di provides dependency injection configuration for the vigil daemon.
package di

import (
	"github.com/samber/do/v2"

	"github.com/vigilapp/vigil/internal/config"
	"github.com/vigilapp/vigil/internal/di/providers"
	"github.com/vigilapp/vigil/internal/logger"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Watch pipeline
	do.Provide(injector, providers.ProvideListener)
	do.Provide(injector, providers.ProvideWatcher)

	return injector
}

// Bootstrap initializes the pipeline. When it returns, every configured
// root has been scanned and the watcher is live.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	log, err := do.Invoke[*logger.Logger](injector)
	if err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.ListenerHandle](injector); err != nil {
		return err
	}
	wh, err := do.Invoke[*providers.WatcherHandle](injector)
	if err != nil {
		return err
	}

	s := wh.Stats()
	log.Info("Watcher running",
		"active_watches", s.ActiveWatches,
		"scan_events", s.Events,
	)

	return nil
}
