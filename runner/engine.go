package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"

	"github.com/isdmx/runme/markdown"
	"github.com/isdmx/runme/sandbox"
)

// Skip reasons recorded by the engine.
const (
	ReasonEmpty        = "Block empty; nothing to execute"
	ReasonCommentsOnly = "Block only had comments/blank lines"
)

// ErrCommandParse is returned when a command line cannot be split into words.
var ErrCommandParse = errors.New("unable to parse command line")

// LineError ties a failure to the block line that caused it.
type LineError struct {
	BlockID string
	Line    int // 1-based line within the block content
	Err     error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("while executing %s line %d: %v", e.BlockID, e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// UnsupportedLanguageReason is the skip reason for blocks in a non-shell language.
func UnsupportedLanguageReason(language string) string {
	return fmt.Sprintf("Language '%s' unsupported yet; add a plugin", language)
}

// Engine executes code blocks line by line against a sandbox backend.
type Engine struct {
	logger  *zap.Logger
	backend sandbox.Backend
	console *Console
}

// Option configures an Engine.
type Option func(*Engine)

// WithConsole sets the console live output is written to.
func WithConsole(console *Console) Option {
	return func(e *Engine) {
		e.console = console
	}
}

// New creates an Engine running commands on backend.
func New(logger *zap.Logger, backend sandbox.Backend, opts ...Option) *Engine {
	engine := &Engine{
		logger:  logger,
		backend: backend,
		console: NewConsole(os.Stdout, os.Stderr),
	}

	for _, opt := range opts {
		opt(engine)
	}

	return engine
}

// Execute runs block and returns its report. Command failures are recorded in
// the report; errors are returned only when a line cannot be parsed or a
// command cannot be started. Execution stops at the first failing command.
func (e *Engine) Execute(ctx context.Context, block markdown.CodeBlock, streamLive bool) (BlockReport, error) {
	if block.SkipReason != "" {
		return skipReport(block, block.SkipReason), nil
	}
	if !block.IsShell() {
		return skipReport(block, UnsupportedLanguageReason(block.LanguageLabel())), nil
	}
	if strings.TrimSpace(block.Content) == "" {
		return skipReport(block, ReasonEmpty), nil
	}

	logger := e.logger.With(zap.String("block", block.ID), zap.String("sandbox", e.backend.Label()))

	var (
		stdout   []string
		stderr   []string
		duration time.Duration
		executed int
		status   = Passed()
	)

	for idx, raw := range strings.Split(block.Content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		argv, err := splitCommand(line)
		if err != nil {
			return BlockReport{}, &LineError{
				BlockID: block.ID,
				Line:    idx + 1,
				Err:     fmt.Errorf("%w: %w", ErrCommandParse, err),
			}
		}
		if len(argv) == 0 {
			continue
		}
		executed++

		sink := newTranscriptSink(line)
		if streamLive {
			sink.live = e.console.Block(block.DisplayID())
		}

		logger.Debug("executing line", zap.Int("line", idx+1), zap.Strings("argv", argv))
		result, err := e.backend.Run(ctx, argv, sink)
		if err != nil {
			return BlockReport{}, &LineError{BlockID: block.ID, Line: idx + 1, Err: err}
		}

		if out := sink.stdout.String(); out != "" {
			stdout = append(stdout, out)
		}
		if out := sink.stderr.String(); out != "" {
			stderr = append(stderr, out)
		}
		duration += result.Duration

		if !result.Success {
			status = Failed(result.ExitCode)
			logger.Debug("command failed, skipping remaining lines",
				zap.Int("line", idx+1),
				zap.Stringer("status", status))
			break
		}
	}

	if executed == 0 {
		return skipReport(block, ReasonCommentsOnly), nil
	}

	return BlockReport{
		ID:       block.ID,
		Name:     block.Name,
		Headings: block.Headings,
		Language: block.Language,
		Sandbox:  e.backend.Label(),
		Duration: duration,
		Status:   status,
		Stdout:   strings.Join(stdout, "\n"),
		Stderr:   strings.Join(stderr, "\n"),
	}, nil
}

// Run executes blocks in order. On a fatal error it returns the reports
// completed so far together with the error.
func (e *Engine) Run(ctx context.Context, blocks []markdown.CodeBlock, streamLive bool) ([]BlockReport, error) {
	reports := make([]BlockReport, 0, len(blocks))
	for _, block := range blocks {
		report, err := e.Execute(ctx, block, streamLive)
		if err != nil {
			return reports, fmt.Errorf("while running %s: %w", block.ID, err)
		}

		e.logger.Info("block finished",
			zap.String("block", report.ID),
			zap.Stringer("status", report.Status),
			zap.Int64("duration_ms", report.DurationMs()))
		reports = append(reports, report)
	}
	return reports, nil
}

// splitCommand splits line into shell words. An unquoted word starting with
// "#" begins a comment that runs to the end of the line.
func splitCommand(line string) ([]string, error) {
	return shellquote.Split(stripComment(line))
}

func stripComment(line string) string {
	var single, double, escaped bool
	for i, r := range line {
		switch {
		case escaped:
			escaped = false
		case single:
			single = r != '\''
		case r == '\\':
			escaped = true
		case double:
			double = r != '"'
		case r == '\'':
			single = true
		case r == '"':
			double = true
		case r == '#' && (i == 0 || line[i-1] == ' ' || line[i-1] == '\t'):
			return line[:i]
		}
	}
	return line
}

func skipReport(block markdown.CodeBlock, reason string) BlockReport {
	return BlockReport{
		ID:         block.ID,
		Name:       block.Name,
		Headings:   block.Headings,
		Language:   block.Language,
		Status:     Skipped(),
		SkipReason: reason,
	}
}
