// Package runner executes extracted code blocks and produces their reports.
//
// The Engine walks a block's content line by line. Blank and "#" lines are
// ignored, every other line is split into shell words and run on a
// sandbox.Backend, and the first failing command stops the block. Blocks that
// cannot run are reported as skipped without touching the backend.
//
// Output of each command is captured into stdout and stderr transcripts where
// every command's section starts with "$ <line>". When live streaming is on,
// the same chunks are echoed to a Console as they arrive.
//
// Usage:
//
//	engine := runner.New(logger, backend)
//	reports, err := engine.Run(ctx, blocks, true)
package runner
