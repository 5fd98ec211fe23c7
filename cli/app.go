package cli

import (
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/isdmx/runme/config"
	"github.com/isdmx/runme/logger"
	"github.com/isdmx/runme/sandbox"
)

// components are the collaborators shared by list and run.
type components struct {
	config  *config.Config
	logger  *zap.Logger
	factory sandbox.Factory
}

// buildComponents resolves the configuration, logger and sandbox factory.
func buildComponents(opts config.Options) (*components, error) {
	var c components

	app := fx.New(
		fx.Supply(opts),
		fx.Provide(
			config.New,
			logger.NewFromConfig,
			sandbox.NewFactory,
		),
		fx.Populate(&c.config, &c.logger, &c.factory),
		fx.NopLogger,
	)
	if err := app.Err(); err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}

	return &c, nil
}
