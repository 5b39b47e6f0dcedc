// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Output goes to stderr by default, next to the backend's own diagnostics,
// which the bridge passes through from the child process.
//
// Example Usage:
//
//	logger, err := logging.New(logging.DefaultConfig())
//	logger.Info("Gateway listening", zap.String("addr", ":3000"))
//	b := bridge.New(cfg, logger.Logger)
package logging
