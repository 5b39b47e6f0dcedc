// Package main is the entry point for the CTerminal bridge.
//
// The bridge starts the C backend (./terminal, or terminal.exe on Windows)
// once and serves it over HTTP:
//
//	Browser → POST /execute → bridge → backend stdin
//	                                 ← one JSON line on stdout
//
// Configuration:
//   - Environment variables (12-factor)
//   - CONFIG_FILE or --config: YAML applied over the environment
//   - CLI flags (override both)
//
// Usage:
//
//	# Serve ./terminal on :3000, admin on 127.0.0.1:9090
//	./server
//
//	# Another backend location, development logging
//	./server --root ../backend --dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
