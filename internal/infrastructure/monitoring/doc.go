/*
Package monitoring provides Prometheus metrics for the bridge.

# Overview

Each Metrics value owns its own registry, so several bridges (or tests) can
coexist in one process. The admin listener serves the registry at /metrics.

# Features

- HTTP request metrics (latency, throughput, size)
- Command metrics by outcome (ok, spawn_failed, backend_exited, ...)
- Pending command depth
- Orphan and malformed backend output lines
- Backend lifecycle state

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))

	b := bridge.New(cfg, logger).WithMetrics(metrics)

	admin.GET("/metrics", gin.WrapH(metrics.Handler()))
*/
package monitoring
