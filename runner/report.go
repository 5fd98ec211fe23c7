package runner

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/isdmx/runme/markdown"
)

// StatusKind is the terminal outcome of a block.
type StatusKind string

// Block outcomes.
const (
	StatusPassed  StatusKind = "passed"
	StatusFailed  StatusKind = "failed"
	StatusSkipped StatusKind = "skipped"
)

// BlockStatus is the terminal status of a block. ExitCode is only meaningful
// for failed blocks and is nil when the failing process had no exit code.
type BlockStatus struct {
	Kind     StatusKind
	ExitCode *int
}

// Passed returns the status of a block whose commands all succeeded.
func Passed() BlockStatus {
	return BlockStatus{Kind: StatusPassed}
}

// Failed returns the status of a block stopped by a failing command.
func Failed(exitCode *int) BlockStatus {
	return BlockStatus{Kind: StatusFailed, ExitCode: exitCode}
}

// Skipped returns the status of a block that was not executed.
func Skipped() BlockStatus {
	return BlockStatus{Kind: StatusSkipped}
}

func (s BlockStatus) String() string {
	if s.Kind != StatusFailed {
		return string(s.Kind)
	}
	if s.ExitCode == nil {
		return "failed (terminated by signal)"
	}
	return fmt.Sprintf("failed (exit code %d)", *s.ExitCode)
}

type failedStatus struct {
	Status   StatusKind `json:"status" yaml:"status"`
	ExitCode *int       `json:"exit_code" yaml:"exit_code"`
}

func (s BlockStatus) wire() any {
	if s.Kind == StatusFailed {
		return failedStatus{Status: s.Kind, ExitCode: s.ExitCode}
	}
	return string(s.Kind)
}

// MarshalJSON encodes passed and skipped as plain strings and failed as
// {"status":"failed","exit_code":N}.
func (s BlockStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.wire())
}

// MarshalYAML mirrors MarshalJSON.
func (s BlockStatus) MarshalYAML() (any, error) {
	return s.wire(), nil
}

// BlockReport is the outcome of one block. Optional fields use the empty
// string for absent.
type BlockReport struct {
	ID         string
	Name       string
	Headings   []string
	Language   string
	Sandbox    string
	Duration   time.Duration
	Status     BlockStatus
	SkipReason string
	Stdout     string
	Stderr     string
}

// DurationMs returns the summed command duration in whole milliseconds.
func (r BlockReport) DurationMs() int64 {
	return r.Duration.Milliseconds()
}

// DisplayID returns the same label as the block the report was produced for.
func (r BlockReport) DisplayID() string {
	return markdown.DisplayID(r.ID, r.Name)
}

type reportWire struct {
	ID         string      `json:"id" yaml:"id"`
	Name       *string     `json:"name" yaml:"name"`
	Headings   []string    `json:"headings" yaml:"headings"`
	Language   *string     `json:"language" yaml:"language"`
	Sandbox    *string     `json:"sandbox" yaml:"sandbox"`
	DurationMs int64       `json:"duration_ms" yaml:"duration_ms"`
	Status     BlockStatus `json:"status" yaml:"status"`
	SkipReason *string     `json:"skip_reason" yaml:"skip_reason"`
	Stdout     *string     `json:"stdout" yaml:"stdout"`
	Stderr     *string     `json:"stderr" yaml:"stderr"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r BlockReport) wire() reportWire {
	headings := r.Headings
	if headings == nil {
		headings = []string{}
	}
	return reportWire{
		ID:         r.ID,
		Name:       optional(r.Name),
		Headings:   headings,
		Language:   optional(r.Language),
		Sandbox:    optional(r.Sandbox),
		DurationMs: r.DurationMs(),
		Status:     r.Status,
		SkipReason: optional(r.SkipReason),
		Stdout:     optional(r.Stdout),
		Stderr:     optional(r.Stderr),
	}
}

// MarshalJSON encodes the report with fixed snake_case keys; absent optional
// fields are null.
func (r BlockReport) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.wire())
}

// MarshalYAML uses the same shape as MarshalJSON.
func (r BlockReport) MarshalYAML() (any, error) {
	return r.wire(), nil
}
