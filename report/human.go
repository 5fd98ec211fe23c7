package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/isdmx/runme/markdown"
	"github.com/isdmx/runme/runner"
)

// HeadingSeparator joins heading titles in human output.
const HeadingSeparator = " › "

// RenderHuman writes one section per report. Transcripts are only printed
// when they were not already streamed.
func RenderHuman(w io.Writer, reports []runner.BlockReport, opts Options) error {
	for _, r := range reports {
		var b strings.Builder

		fmt.Fprintf(&b, "\n== %s ==\n", r.DisplayID())
		if r.Language != "" {
			fmt.Fprintf(&b, "language: %s\n", r.Language)
		}
		if r.Sandbox != "" {
			fmt.Fprintf(&b, "sandbox: %s\n", r.Sandbox)
		}
		if len(r.Headings) > 0 {
			fmt.Fprintf(&b, "context: %s\n", strings.Join(r.Headings, HeadingSeparator))
		}
		fmt.Fprintf(&b, "status: %s\n", statusColor(r.Status, opts.Color).Sprint(r.Status))
		if r.SkipReason != "" {
			fmt.Fprintf(&b, "skip reason: %s\n", r.SkipReason)
		}
		if !opts.Streamed {
			if r.Stdout != "" {
				fmt.Fprintf(&b, "stdout:\n%s\n", r.Stdout)
			}
			if r.Stderr != "" {
				fmt.Fprintf(&b, "stderr:\n%s\n", r.Stderr)
			}
		}

		if _, err := io.WriteString(w, b.String()); err != nil {
			return fmt.Errorf("failed to write report for %s: %w", r.ID, err)
		}
	}
	return nil
}

func statusColor(status runner.BlockStatus, enabled bool) *color.Color {
	var c *color.Color
	switch status.Kind {
	case runner.StatusPassed:
		c = color.New(color.FgGreen)
	case runner.StatusFailed:
		c = color.New(color.FgRed, color.Bold)
	default:
		c = color.New(color.FgYellow)
	}
	if enabled {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

// RenderList writes the discovered blocks, one line each.
func RenderList(w io.Writer, blocks []markdown.CodeBlock) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Discovered %d block(s):\n", len(blocks))
	for _, block := range blocks {
		headings := "(root)"
		if len(block.Headings) > 0 {
			headings = strings.Join(block.Headings, HeadingSeparator)
		}
		var skip string
		if block.SkipReason != "" {
			skip = fmt.Sprintf(" (skip: %s)", block.SkipReason)
		}
		fmt.Fprintf(&b, "- %s [%s] %s%s\n", block.DisplayID(), block.LanguageLabel(), headings, skip)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WarnDuplicateNames writes one warning per name shared by several blocks.
func WarnDuplicateNames(w io.Writer, dups []markdown.DuplicateName) error {
	for _, dup := range dups {
		_, err := fmt.Fprintf(w,
			"warning: runme:name '%s' is used by multiple blocks (%s); `--block %s` will target the first match.\n",
			dup.Name, strings.Join(dup.IDs, ", "), dup.Name)
		if err != nil {
			return err
		}
	}
	return nil
}
