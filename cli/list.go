package cli

import (
	"github.com/spf13/cobra"

	"github.com/isdmx/runme/markdown"
	"github.com/isdmx/runme/report"
)

// NewListCommand creates and returns the list subcommand
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [document]",
		Short: "List the code blocks of a document",
		Long: `List every fenced or indented code block of a document with its id,
runme:name, language, enclosing headings and skip reason.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildComponents(configOptions(cmd, args, nil))
			if err != nil {
				return err
			}
			defer c.logger.Sync() //nolint:errcheck

			blocks, err := markdown.LoadFile(c.config.Document.Path)
			if err != nil {
				return err
			}
			if err := report.WarnDuplicateNames(cmd.ErrOrStderr(), markdown.DuplicateNames(blocks)); err != nil {
				return err
			}
			return report.RenderList(cmd.OutOrStdout(), blocks)
		},
		SilenceUsage: true,
	}

	return cmd
}
