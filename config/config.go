package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix prefixes environment overrides, e.g. RUNME_SANDBOX_BACKEND.
const EnvPrefix = "RUNME"

// Config represents the application configuration
type Config struct {
	Document DocumentConfig `mapstructure:"document"`
	Sandbox  SandboxConfig  `mapstructure:"sandbox"`
	Report   ReportConfig   `mapstructure:"report"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Server   ServerConfig   `mapstructure:"server"`
}

// DocumentConfig holds the document to read blocks from
type DocumentConfig struct {
	Path string `mapstructure:"path"`
}

// SandboxConfig holds sandbox configuration
type SandboxConfig struct {
	Backend   string   `mapstructure:"backend"`
	Engine    string   `mapstructure:"engine"`
	Image     string   `mapstructure:"image"`
	ExtraArgs []string `mapstructure:"extra_args"`
}

// ReportConfig holds report rendering configuration
type ReportConfig struct {
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Mode  string `mapstructure:"mode"`
	Level string `mapstructure:"level"`
}

// ServerConfig holds MCP server configuration
type ServerConfig struct {
	Transport string `mapstructure:"transport"`
	HTTPPort  int    `mapstructure:"http_port"`
}

// Options control where configuration is loaded from.
type Options struct {
	// ConfigFile is an explicit config file path. When empty, runme.yaml is
	// searched in . and ./config.
	ConfigFile string
	// Flags holds command line flags to bind.
	Flags *pflag.FlagSet
	// FlagKeys maps configuration keys to flag names in Flags.
	FlagKeys map[string]string
	// Document overrides document.path when set.
	Document string
}

// Canonical sandbox backend names.
const (
	BackendLocal         = "local"
	BackendContainerized = "containerized"
	BackendIsolated      = "isolated"
)

var backendAliases = map[string]string{
	"local":         BackendLocal,
	"host":          BackendLocal,
	"containerized": BackendContainerized,
	"container":     BackendContainerized,
	"docker":        BackendContainerized,
	"isolated":      BackendIsolated,
	"wasm":          BackendIsolated,
}

// ResolveBackend returns the canonical backend for name, which may be an
// alias. Matching ignores case and surrounding whitespace.
func ResolveBackend(name string) (string, bool) {
	backend, ok := backendAliases[strings.ToLower(strings.TrimSpace(name))]
	return backend, ok
}

// New loads and validates the application configuration
func New(opts Options) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("runme")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// If config file not found, continue with defaults
	}

	for key, name := range opts.FlagKeys {
		if opts.Flags == nil {
			break
		}
		flag := opts.Flags.Lookup(name)
		if flag == nil {
			return nil, fmt.Errorf("unknown flag %q bound to %s", name, key)
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, fmt.Errorf("error binding flag %q: %w", name, err)
		}
	}

	if opts.Document != "" {
		v.Set("document.path", opts.Document)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("document.path", "README.md")

	v.SetDefault("sandbox.backend", "local")
	v.SetDefault("sandbox.engine", "docker")
	v.SetDefault("sandbox.image", "")
	v.SetDefault("sandbox.extra_args", []string{})

	v.SetDefault("report.format", "human")
	v.SetDefault("report.output", "")

	v.SetDefault("logging.mode", "production")
	v.SetDefault("logging.level", "warn")

	v.SetDefault("server.transport", "stdio")
	v.SetDefault("server.http_port", 8080)
}

// validate ensures the configuration is valid
func (c *Config) validate() error {
	if strings.TrimSpace(c.Document.Path) == "" {
		return errors.New("document.path must not be empty")
	}

	if _, ok := ResolveBackend(c.Sandbox.Backend); !ok {
		return fmt.Errorf("unsupported sandbox.backend: %s", c.Sandbox.Backend)
	}

	if c.Sandbox.Engine != "docker" && c.Sandbox.Engine != "podman" {
		return fmt.Errorf("invalid sandbox.engine: %s, must be 'docker' or 'podman'", c.Sandbox.Engine)
	}

	switch strings.ToLower(c.Report.Format) {
	case "human", "json", "yaml":
	default:
		return fmt.Errorf("invalid report.format: %s, must be 'human', 'json' or 'yaml'", c.Report.Format)
	}

	if c.Logging.Mode != "production" && c.Logging.Mode != "development" {
		return fmt.Errorf("invalid logging.mode: %s, must be 'production' or 'development'", c.Logging.Mode)
	}

	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid logging.level: %s", c.Logging.Level)
	}

	if c.Server.Transport != "stdio" && c.Server.Transport != "http" {
		return fmt.Errorf("invalid server.transport: %s, must be 'stdio' or 'http'", c.Server.Transport)
	}

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port must be between 1 and 65535, got: %d", c.Server.HTTPPort)
	}

	return nil
}
