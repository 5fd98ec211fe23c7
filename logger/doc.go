// Package logger provides structured logging capabilities.
//
// The logger package sets up and configures the application's logging
// system using zap, providing structured, high-performance logging
// throughout the application.
//
// Usage:
//
//	log, err := logger.NewFromConfig(cfg)
//	if err != nil {
//	    panic(err)
//	}
//	log = logger.WithRun(log, uuid.NewString())
//	log.Info("run started")
package logger