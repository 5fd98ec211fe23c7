package sandbox

import (
	"context"

	"go.uber.org/zap"
)

// IsolatedBackend is the placeholder for an isolated runtime. Until one
// exists it runs commands on the host and says so in its label.
type IsolatedBackend struct {
	fallback *LocalBackend
}

// NewIsolatedBackend creates an IsolatedBackend that falls back to local execution.
func NewIsolatedBackend(logger *zap.Logger, workdir string, opts ...LocalBackendOption) *IsolatedBackend {
	logger.Warn("isolated sandbox is not available yet, commands run on the host",
		zap.String("sandbox", LabelIsolated),
		zap.String("workdir", workdir))

	return &IsolatedBackend{
		fallback: NewLocalBackend(logger, workdir, opts...),
	}
}

// Label implements Backend.
func (*IsolatedBackend) Label() string {
	return LabelIsolated
}

// Run implements Backend.
func (i *IsolatedBackend) Run(ctx context.Context, argv []string, sink OutputSink) (CommandStatus, error) {
	return i.fallback.run(ctx, i.Label(), argv, sink)
}
