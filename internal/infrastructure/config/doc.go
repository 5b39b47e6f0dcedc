// Package config provides 12-factor configuration management for the bridge.
//
// Configuration is loaded from environment variables with defaults. An
// optional YAML file (CONFIG_FILE) is applied on top, and CLI flags override
// both.
//
// Configuration Sections:
//   - Server: gateway listener, request timeout, body limit, compression
//   - Admin: health and metrics listener
//   - Backend: installation root, executable, framing and queue limits
//   - Logging: Log level and output format
//   - RateLimit: global and per-client rate limiting of /execute
//
// Example Usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//		return err
//	}
//	fmt.Printf("Gateway on %s\n", cfg.Server.Addr())
//
// Environment Variables:
//   - PORT, HOST, REQUEST_TIMEOUT, MAX_BODY_BYTES, COMPRESSION_ENABLED
//   - ADMIN_PORT, ADMIN_HOST, ADMIN_ENABLED
//   - BACKEND_ROOT, BACKEND_BIN, BACKEND_MAX_LINE_BYTES, BACKEND_MAX_PENDING
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - RATE_LIMIT_CLIENT_RPS (0 disables), RATE_LIMIT_CLIENT_BURST, RATE_LIMIT_CLIENT_IDLE_TTL
//   - CONFIG_FILE
package config
