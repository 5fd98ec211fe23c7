package cli

import (
	"github.com/spf13/cobra"

	"github.com/isdmx/runme/config"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// globalFlagKeys binds persistent flags to configuration keys.
var globalFlagKeys = map[string]string{
	"sandbox.backend":    "sandbox",
	"sandbox.engine":     "container-engine",
	"sandbox.image":      "container-image",
	"sandbox.extra_args": "container-arg",
	"logging.level":      "log-level",
	"logging.mode":       "log-mode",
}

// NewRootCommand creates and returns the root cobra command for runme.
// Invoked without a subcommand it behaves like "runme run".
func NewRootCommand() *cobra.Command {
	var runOpts runOptions

	cmd := &cobra.Command{
		Use:   "runme [document]",
		Short: "Run the shell examples of a markdown document",
		Long: `Runme extracts the fenced code blocks of a markdown document, runs the
shell ones line by line and reports which blocks passed, failed or were skipped.

Blocks are controlled with directives:
  <!-- runme:name setup -->    name the next block
  <!-- runme:ignore -->        skip the next block
  ` + "```bash runme:name=setup runme:skip" + `

The document defaults to README.md. Commands run in the document's directory.`,
		Version: Version,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBlocks(cmd, args, runOpts)
		},
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "path to a runme.yaml configuration file")
	flags.String("sandbox", "local", "execution backend: local, containerized (docker) or isolated (wasm)")
	flags.String("container-engine", "docker", "container engine for the containerized backend: docker or podman")
	flags.String("container-image", "", "container image (default $RUNME_DOCKER_IMAGE or ubuntu:22.04)")
	flags.StringArray("container-arg", nil, "extra argument for '<engine> run', repeatable")
	flags.String("log-level", "warn", "log level: debug, info, warn or error")
	flags.String("log-mode", "production", "log mode: production or development")

	addRunFlags(cmd, &runOpts)

	// Add subcommands
	cmd.AddCommand(NewListCommand())
	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewServeCommand())

	return cmd
}

// configOptions collects the configuration sources of cmd.
func configOptions(cmd *cobra.Command, args []string, extra map[string]string) config.Options {
	configFile, _ := cmd.Flags().GetString("config")

	keys := make(map[string]string, len(globalFlagKeys)+len(extra))
	for key, name := range globalFlagKeys {
		keys[key] = name
	}
	for key, name := range extra {
		keys[key] = name
	}

	opts := config.Options{
		ConfigFile: configFile,
		Flags:      cmd.Flags(),
		FlagKeys:   keys,
	}
	if len(args) > 0 {
		opts.Document = args[0]
	}
	return opts
}
