package cli

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/isdmx/runme/logger"
	"github.com/isdmx/runme/markdown"
	"github.com/isdmx/runme/report"
	"github.com/isdmx/runme/runner"
)

// ErrBlocksFailed is returned when at least one executed block failed.
var ErrBlocksFailed = errors.New("one or more blocks failed")

var runFlagKeys = map[string]string{
	"report.format": "format",
	"report.output": "output",
}

type runOptions struct {
	block string
}

func addRunFlags(cmd *cobra.Command, opts *runOptions) {
	cmd.Flags().StringVar(&opts.block, "block", "", "run only the block with this id or runme:name")
	cmd.Flags().String("format", "human", "report format: human, json or yaml")
	cmd.Flags().String("output", "", "write the report to this file instead of stdout")
}

// NewRunCommand creates and returns the run subcommand
func NewRunCommand() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run [document]",
		Short: "Execute the shell blocks of a document",
		Long: `Execute the shell blocks of a document in discovery order.

Each block runs line by line and stops at the first failing command. Blocks in
other languages, empty blocks and blocks marked with runme:ignore are skipped.

Exit code: 0 if no block failed, 1 otherwise`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBlocks(cmd, args, opts)
		},
		SilenceUsage: true,
	}

	addRunFlags(cmd, &opts)

	return cmd
}

func runBlocks(cmd *cobra.Command, args []string, opts runOptions) error {
	c, err := buildComponents(configOptions(cmd, args, runFlagKeys))
	if err != nil {
		return err
	}
	defer c.logger.Sync() //nolint:errcheck

	log := logger.WithRun(c.logger, uuid.NewString())
	path := c.config.Document.Path

	format, err := report.ParseFormat(c.config.Report.Format)
	if err != nil {
		return err
	}

	blocks, err := markdown.LoadFile(path)
	if err != nil {
		return err
	}
	if err := report.WarnDuplicateNames(cmd.ErrOrStderr(), markdown.DuplicateNames(blocks)); err != nil {
		return err
	}

	selected, err := markdown.Select(blocks, opts.block)
	if err != nil {
		return err
	}

	backend, err := c.factory(markdown.WorkingDir(c.config.Document.Path))
	if err != nil {
		return err
	}

	log.Info("running document",
		zap.String("document", path),
		zap.String("sandbox", backend.Label()),
		zap.Int("blocks", len(selected)))

	console := runner.NewConsole(cmd.OutOrStdout(), cmd.ErrOrStderr())
	engine := runner.New(log, backend, runner.WithConsole(console))
	live := format.StreamsLive() && c.config.Report.Output == ""

	reports, runErr := engine.Run(cmd.Context(), selected, live)
	if err := writeReports(cmd, format, reports, live, c.config.Report.Output); err != nil {
		return errors.Join(runErr, err)
	}
	if runErr != nil {
		return runErr
	}

	for _, r := range reports {
		if r.Status.Kind == runner.StatusFailed {
			return ErrBlocksFailed
		}
	}
	return nil
}

func writeReports(cmd *cobra.Command, format report.Format, reports []runner.BlockReport, streamed bool, output string) error {
	if output == "" {
		out := cmd.OutOrStdout()
		return report.Render(out, format, reports, report.Options{
			Streamed: streamed,
			Color:    report.ColorEnabled(out),
		})
	}

	var buf bytes.Buffer
	if err := report.Render(&buf, format, reports, report.Options{}); err != nil {
		return err
	}
	if err := report.WriteFile(output, buf.Bytes()); err != nil {
		return fmt.Errorf("while writing %s: %w", output, err)
	}
	return nil
}
