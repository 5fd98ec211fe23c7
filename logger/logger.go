package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/isdmx/runme/config"
)

// Defaults used when the logging section leaves a value empty.
const (
	DefaultMode  = "production"
	DefaultLevel = "warn"
)

// NewFromConfig creates a logger from the logging section of cfg. Every entry
// carries the document and sandbox backend it was produced for.
func NewFromConfig(cfg *config.Config) (*zap.Logger, error) {
	log, err := New(cfg.Logging.Mode, cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	return Annotate(log, cfg), nil
}

// Annotate returns a child logger tagged with the configured document path
// and sandbox backend.
func Annotate(logger *zap.Logger, cfg *config.Config) *zap.Logger {
	fields := make([]zap.Field, 0, 2)
	if cfg.Document.Path != "" {
		fields = append(fields, zap.String("document", cfg.Document.Path))
	}
	if cfg.Sandbox.Backend != "" {
		fields = append(fields, zap.String("backend", cfg.Sandbox.Backend))
	}
	return logger.With(fields...)
}

// WithRun returns a child logger tagging every entry with the run id.
func WithRun(logger *zap.Logger, runID string) *zap.Logger {
	return logger.With(zap.String("run_id", runID))
}

// New creates a new logger writing to stderr. Stdout is left to reports,
// streamed command output and the MCP stdio transport.
func New(mode, level string) (*zap.Logger, error) {
	if mode == "" {
		mode = DefaultMode
	}
	if level == "" {
		level = DefaultLevel
	}

	var cfg zap.Config

	switch mode {
	case "development":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	case "production":
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	default:
		return nil, fmt.Errorf("invalid logging mode: %s, must be 'production' or 'development'", mode)
	}

	// Set the log level
	logLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid logging level: %s, must be one of 'debug', 'info', 'warn', 'error', 'dpanic', 'panic', 'fatal'", level)
	}
	cfg.Level = zap.NewAtomicLevelAt(logLevel)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	return cfg.Build()
}
