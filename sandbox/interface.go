package sandbox

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/isdmx/runme/config"
)

// Backend labels surfaced in reports.
const (
	LabelLocal         = "local"
	LabelContainerized = "containerized"
	LabelIsolated      = "isolated(local-fallback)"
)

var (
	// ErrSpawn is returned when a process cannot be started.
	ErrSpawn = errors.New("failed to start process")
	// ErrEmptyCommand is returned when Run is called without arguments.
	ErrEmptyCommand = errors.New("sandbox run requires at least one argument")
)

// Backend runs single commands and streams their output.
type Backend interface {
	// Label is a short name for reports, e.g. "local" or "containerized".
	Label() string
	// Run executes argv to completion, streaming output into sink.
	// A non-zero exit is not an error.
	Run(ctx context.Context, argv []string, sink OutputSink) (CommandStatus, error)
}

// Streamer spawns a prepared command and streams its output.
type Streamer interface {
	Stream(cmd *exec.Cmd, sink OutputSink) (CommandStatus, error)
}

// RealStreamer implements Streamer with Spawn.
type RealStreamer struct{}

// Stream runs cmd through the shared multiplexer.
func (RealStreamer) Stream(cmd *exec.Cmd, sink OutputSink) (CommandStatus, error) {
	return Spawn(cmd, sink)
}

// ExecutionError reports a command that could not be run by a backend.
type ExecutionError struct {
	Backend string // backend label
	Binary  string // first element of the command's argv
	Engine  string // container engine, empty for host execution
	Err     error
}

func (e *ExecutionError) Error() string {
	if e.Engine != "" {
		return fmt.Sprintf("while invoking %s via %s inside %s sandbox: %v", e.Binary, e.Engine, e.Backend, e.Err)
	}
	return fmt.Sprintf("while invoking %s inside %s sandbox: %v", e.Binary, e.Backend, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Kind selects a backend variant.
type Kind string

// Supported backend kinds.
const (
	KindLocal         Kind = config.BackendLocal
	KindContainerized Kind = config.BackendContainerized
	KindIsolated      Kind = config.BackendIsolated
)

// ParseKind resolves a backend name or one of its aliases.
func ParseKind(name string) (Kind, error) {
	backend, ok := config.ResolveBackend(name)
	if !ok {
		return "", fmt.Errorf("unsupported backend: %s", name)
	}
	return Kind(backend), nil
}
