// Package config provides application configuration management.
//
// Configuration is layered with viper: built-in defaults, an optional
// runme.yaml file, RUNME_* environment variables and finally command line
// flags bound through Options.FlagKeys.
//
// Usage:
//
//	cfg, err := config.New(config.Options{Document: "docs/README.md"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Sandbox backend: %s\n", cfg.Sandbox.Backend)
package config
