// Package providers contains dependency injection providers for the vigil daemon.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/vigilapp/vigil/internal/config"
	"github.com/vigilapp/vigil/internal/id"
	"github.com/vigilapp/vigil/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger. Every line from one
// process carries the same run ID.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Format:      cfg.Logger.Format,
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	runID := id.MustGenerate("run")
	log = &logger.Logger{Logger: log.With("run", runID)}

	log.Info("Starting vigil",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"roots", len(cfg.Watch.Roots),
	)

	return log, nil
}
