package sandbox

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/isdmx/runme/config"
)

// Config selects and configures a backend.
type Config struct {
	Kind      Kind
	Workdir   string
	Container ContainerConfig
}

// NewBackend creates the backend described by config
func NewBackend(logger *zap.Logger, config *Config) (Backend, error) {
	switch config.Kind {
	case KindLocal:
		return NewLocalBackend(logger, config.Workdir), nil
	case KindContainerized:
		return NewContainerBackend(logger, config.Workdir, config.Container), nil
	case KindIsolated:
		return NewIsolatedBackend(logger, config.Workdir), nil
	default:
		return nil, fmt.Errorf("unsupported backend: %s", config.Kind)
	}
}

// Factory creates a backend for commands running in workdir.
type Factory func(workdir string) (Backend, error)

// NewFactory returns a Factory configured from the application configuration.
func NewFactory(logger *zap.Logger, cfg *config.Config) (Factory, error) {
	kind, err := ParseKind(cfg.Sandbox.Backend)
	if err != nil {
		return nil, err
	}

	container := ContainerConfig{
		Engine:    cfg.Sandbox.Engine,
		Image:     cfg.Sandbox.Image,
		ExtraArgs: cfg.Sandbox.ExtraArgs,
	}

	return func(workdir string) (Backend, error) {
		return NewBackend(logger, &Config{
			Kind:      kind,
			Workdir:   workdir,
			Container: container,
		})
	}, nil
}
