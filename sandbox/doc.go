// Package sandbox provides the execution backends code blocks run against.
//
// The sandbox package turns a command's argument vector into a running
// process and streams its output line by line. It supports three backends:
// local execution on the host, containerized execution through docker or
// podman, and an isolated backend that currently falls back to the host and
// reports "isolated(local-fallback)" as its label so the fallback stays visible.
//
// All backends hand the prepared command to Spawn, the shared stream
// multiplexer: stdout and stderr are read concurrently and delivered to a
// single OutputSink in arrival order.
//
// Usage:
//
//	backend, err := sandbox.NewBackend(logger, &sandbox.Config{
//	    Kind:    sandbox.KindLocal,
//	    Workdir: ".",
//	})
//	status, err := backend.Run(ctx, []string{"make", "test"}, sink)
package sandbox
