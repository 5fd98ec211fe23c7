package sandbox

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"slices"

	"go.uber.org/zap"
)

// Container defaults.
const (
	DefaultEngine  = "docker"
	DefaultImage   = "ubuntu:22.04"
	ImageEnvVar    = "RUNME_DOCKER_IMAGE"
	ContainerMount = "/workspace"
)

// ContainerConfig holds configuration for the containerized backend
type ContainerConfig struct {
	Engine    string   // docker or podman
	Image     string   // explicit image, wins over ImageEnvVar
	ExtraArgs []string // forwarded to "<engine> run" before the image
}

// ContainerBackend runs every command in a disposable container with the
// working directory mounted at /workspace and networking disabled.
type ContainerBackend struct {
	logger    *zap.Logger
	engine    string
	mountDir  string
	image     string
	extraArgs []string
	streamer  Streamer
}

// ContainerBackendOption defines a functional option for ContainerBackend
type ContainerBackendOption func(*ContainerBackend)

// WithContainerStreamer sets the Streamer for ContainerBackend
func WithContainerStreamer(streamer Streamer) ContainerBackendOption {
	return func(c *ContainerBackend) {
		c.streamer = streamer
	}
}

// NewContainerBackend creates a ContainerBackend mounting workdir.
func NewContainerBackend(logger *zap.Logger, workdir string, cfg ContainerConfig, opts ...ContainerBackendOption) *ContainerBackend {
	engine := cfg.Engine
	if engine == "" {
		engine = DefaultEngine
	}

	backend := &ContainerBackend{
		logger:    logger,
		engine:    engine,
		mountDir:  absoluteDir(workdir),
		image:     ResolveImage(cfg.Image),
		extraArgs: slices.Clone(cfg.ExtraArgs),
		streamer:  RealStreamer{},
	}

	for _, opt := range opts {
		opt(backend)
	}

	logger.Debug("containerized sandbox configured",
		zap.String("engine", backend.engine),
		zap.String("image", backend.image),
		zap.String("mount", backend.mountDir),
		zap.Strings("extra_args", backend.extraArgs))

	return backend
}

// ResolveImage picks the container image: the explicit value, else the
// RUNME_DOCKER_IMAGE environment variable, else DefaultImage.
func ResolveImage(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if fromEnv := os.Getenv(ImageEnvVar); fromEnv != "" {
		return fromEnv
	}
	return DefaultImage
}

// Image returns the resolved container image.
func (c *ContainerBackend) Image() string {
	return c.image
}

// Label implements Backend.
func (*ContainerBackend) Label() string {
	return LabelContainerized
}

// Args returns the full engine command line used to run argv.
func (c *ContainerBackend) Args(argv []string) []string {
	args := []string{
		c.engine, "run",
		"--rm",
		"--network=none",
		"-v", c.mountDir + ":" + ContainerMount,
		"-w", ContainerMount,
	}
	args = append(args, c.extraArgs...)
	args = append(args, c.image)
	return append(args, argv...)
}

// Run implements Backend.
func (c *ContainerBackend) Run(ctx context.Context, argv []string, sink OutputSink) (CommandStatus, error) {
	if len(argv) == 0 {
		return CommandStatus{}, ErrEmptyCommand
	}

	args := c.Args(argv)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...) //nolint:gosec // engine and image come from configuration

	c.logger.Debug("running command",
		zap.String("sandbox", c.Label()),
		zap.Strings("argv", args))

	status, err := c.streamer.Stream(cmd, sink)
	if err != nil {
		return status, &ExecutionError{Backend: c.Label(), Binary: argv[0], Engine: c.engine, Err: err}
	}
	return status, nil
}

// absoluteDir resolves dir to an absolute, symlink-free path, falling back to
// the input when it cannot be resolved.
func absoluteDir(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}
