package sandbox

import (
	"context"
	"os/exec"

	"go.uber.org/zap"
)

// LocalBackend runs commands directly on the host in a fixed working directory.
type LocalBackend struct {
	logger   *zap.Logger
	workdir  string
	streamer Streamer
}

// LocalBackendOption defines a functional option for LocalBackend
type LocalBackendOption func(*LocalBackend)

// WithLocalStreamer sets the Streamer for LocalBackend
func WithLocalStreamer(streamer Streamer) LocalBackendOption {
	return func(l *LocalBackend) {
		l.streamer = streamer
	}
}

// NewLocalBackend creates a LocalBackend running commands in workdir.
func NewLocalBackend(logger *zap.Logger, workdir string, opts ...LocalBackendOption) *LocalBackend {
	backend := &LocalBackend{
		logger:   logger,
		workdir:  workdir,
		streamer: RealStreamer{},
	}

	for _, opt := range opts {
		opt(backend)
	}

	return backend
}

// Label implements Backend.
func (*LocalBackend) Label() string {
	return LabelLocal
}

// Run implements Backend.
func (l *LocalBackend) Run(ctx context.Context, argv []string, sink OutputSink) (CommandStatus, error) {
	return l.run(ctx, l.Label(), argv, sink)
}

func (l *LocalBackend) run(ctx context.Context, label string, argv []string, sink OutputSink) (CommandStatus, error) {
	if len(argv) == 0 {
		return CommandStatus{}, ErrEmptyCommand
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...) //nolint:gosec // running documented commands is the point
	cmd.Dir = l.workdir

	l.logger.Debug("running command",
		zap.String("sandbox", label),
		zap.String("workdir", l.workdir),
		zap.Strings("argv", argv))

	status, err := l.streamer.Stream(cmd, sink)
	if err != nil {
		return status, &ExecutionError{Backend: label, Binary: argv[0], Err: err}
	}
	return status, nil
}
