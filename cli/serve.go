package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/isdmx/runme/config"
	"github.com/isdmx/runme/logger"
	"github.com/isdmx/runme/mcpserver"
	"github.com/isdmx/runme/sandbox"
)

var serveFlagKeys = map[string]string{
	"server.transport": "transport",
	"server.http_port": "http-port",
}

// NewServeCommand creates and returns the serve subcommand
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [document]",
		Short: "Serve list_blocks and run_blocks as MCP tools",
		Long: `Start a Model Context Protocol server exposing the list_blocks and
run_blocks tools. The document argument is the default for tool calls that
omit a path.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), configOptions(cmd, args, serveFlagKeys))
		},
		SilenceUsage: true,
	}

	cmd.Flags().String("transport", "stdio", "MCP transport: stdio or http")
	cmd.Flags().Int("http-port", 8080, "port for the http transport")

	return cmd
}

func serve(ctx context.Context, opts config.Options) error {
	app := fx.New(
		fx.Supply(opts),
		// Provide dependencies
		fx.Provide(
			config.New,
			logger.NewFromConfig,
			sandbox.NewFactory,
			mcpserver.New,
		),
		fx.Invoke(registerServer),
		// Use the application logger for fx logs
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
	)
	if err := app.Err(); err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	var signal fx.ShutdownSignal
	select {
	case signal = <-app.Wait():
	case <-ctx.Done():
	}

	if err := app.Stop(context.Background()); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}
	if signal.ExitCode != 0 {
		return fmt.Errorf("server exited with code %d", signal.ExitCode)
	}
	return nil
}

// registerServer runs the configured transport for the lifetime of the app.
func registerServer(lc fx.Lifecycle, shutdowner fx.Shutdowner, server *mcpserver.MCPServer, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				code := 0
				if err := server.Serve(); err != nil {
					log.Error("MCP server stopped", zap.Error(err))
					code = 1
				}
				_ = shutdowner.Shutdown(fx.ExitCode(code))
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return server.Shutdown(ctx)
		},
	})
}
