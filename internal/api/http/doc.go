// Package http implements the gateway and admin HTTP handlers.
//
// Gateway (one route):
//
//	POST /execute   {"command": "ls"}  ->  backend JSON line, verbatim
//
// Every other method or path answers 404 "not found". Failures use the
// backend's result shape plus an "error" code:
//
//	400 empty_command | invalid_command | invalid_request
//	500 spawn_failed | backend_exited | malformed_output
//	429 rate_limited
//	503 queue_full
//	504 timeout
//
// Admin listener:
//
//	GET /health    backend state, pid, pending depth
//	GET /metrics   Prometheus exposition
//	GET /log-level current zap level
//	PUT /log-level {"level": "debug"} changes it without a restart
package http
