// Package logging provides structured logging for the simulator.
//
// This package wraps Go's standard log/slog package so every component
// logs with the same shape.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "0.1.0")
//	logger.Info("starting service", "port", 8080)
//	logger.Component("lock").Warn("lease expired", "entity", "doors")
//
// Lock tokens are credentials: log lease ids, never tokens.
package logging
