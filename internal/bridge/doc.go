// Package bridge connects HTTP callers to the line-oriented terminal backend.
//
// One backend process is spawned at startup and lives for the lifetime of the
// bridge. Commands are written to its stdin one per line; the backend answers
// each with one JSON object per line on stdout, in the same order.
//
// Components:
//   - Process: owns the child process and its stdio pipes
//   - Framer: splits stdout into newline-terminated messages
//   - Correlator: FIFO queue matching the nth line to the nth pending command
//   - Bridge: validates commands, writes and registers them atomically
//   - monitor: reads output, reaps the process and fails pending commands on exit
//
// Correlation is purely positional. Registering a command and writing it to
// stdin happen under one mutex, and a single goroutine feeds the framer, so
// the order of lines always matches the order of registrations.
//
// Failure handling:
//   - Spawn failure: permanent, every Execute fails fast with ErrSpawnFailed
//   - Backend exit: queued commands fail with ErrBackendExited, later ones fail fast
//   - Malformed line: the oldest pending command fails with ErrMalformedOutput
//   - Orphan line: dropped when nothing is pending
//
// There is no respawn; a dead backend is terminal for the bridge.
//
// Example Usage:
//
//	b := bridge.New(bridge.Config{Process: bridge.ProcessConfig{Path: bin, Dir: root}}, logger)
//	if err := b.Start(); err != nil {
//		logger.Error("backend unavailable", zap.Error(err))
//	}
//	res, err := b.Execute(ctx, "pwd")
package bridge
