package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/isdmx/runme/runner"
)

// Format selects how reports are rendered.
type Format string

// Supported report formats.
const (
	FormatHuman Format = "human"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch format := Format(strings.ToLower(strings.TrimSpace(name))); format {
	case FormatHuman, FormatJSON, FormatYAML:
		return format, nil
	default:
		return "", fmt.Errorf("unsupported report format: %s, must be 'human', 'json' or 'yaml'", name)
	}
}

// StreamsLive reports whether command output is echoed while blocks run.
// Machine-readable formats keep stdout clean for the report itself.
func (f Format) StreamsLive() bool {
	return f == FormatHuman
}

// Options tune rendering.
type Options struct {
	// Streamed is set when command output was already shown live.
	Streamed bool
	// Color enables terminal colors.
	Color bool
}

// Render writes reports to w in the given format.
func Render(w io.Writer, format Format, reports []runner.BlockReport, opts Options) error {
	switch format {
	case FormatHuman:
		return RenderHuman(w, reports, opts)
	case FormatJSON:
		return RenderJSON(w, reports, opts)
	case FormatYAML:
		return RenderYAML(w, reports)
	default:
		return fmt.Errorf("unsupported report format: %s", format)
	}
}

// ColorEnabled reports whether w is a terminal.
func ColorEnabled(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
