package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/TylerBrock/colorjson"
	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/isdmx/runme/runner"
)

// RenderJSON writes reports as an indented JSON array. With colors enabled
// the output is highlighted; keys are then sorted alphabetically.
func RenderJSON(w io.Writer, reports []runner.BlockReport, opts Options) error {
	data, err := EncodeJSON(reports)
	if err != nil {
		return err
	}

	if opts.Color {
		var decoded any
		if err := json.Unmarshal(data, &decoded); err != nil {
			return fmt.Errorf("failed to decode report: %w", err)
		}

		formatter := colorjson.NewFormatter()
		formatter.Indent = 2
		formatter.KeyColor = enabledColor(color.FgBlue, color.Bold)
		formatter.StringColor = enabledColor(color.FgGreen)
		formatter.BoolColor = enabledColor(color.FgYellow)
		formatter.NumberColor = enabledColor(color.FgCyan)
		formatter.NullColor = enabledColor(color.FgHiBlack)
		if data, err = formatter.Marshal(decoded); err != nil {
			return fmt.Errorf("failed to colorize report: %w", err)
		}
	}

	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// enabledColor returns a color that ignores terminal detection, which the
// caller has already done.
func enabledColor(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	c.EnableColor()
	return c
}

// EncodeJSON returns reports as an indented JSON array.
func EncodeJSON(reports []runner.BlockReport) ([]byte, error) {
	if reports == nil {
		reports = []runner.BlockReport{}
	}
	data, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return data, nil
}

// RenderYAML writes reports as a YAML sequence.
func RenderYAML(w io.Writer, reports []runner.BlockReport) error {
	data, err := EncodeYAML(reports)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// EncodeYAML returns reports as a YAML sequence.
func EncodeYAML(reports []runner.BlockReport) ([]byte, error) {
	if reports == nil {
		reports = []runner.BlockReport{}
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(reports); err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return buf.Bytes(), nil
}
