// Package middleware provides the HTTP middleware used by the gateway.
//
// Middleware stack:
//   - CORS: any origin may call the gateway; preflight handled here
//   - RateLimit / GlobalRateLimit: token bucket limiting (golang.org/x/time/rate)
//   - RequestLogger: request IDs and structured access logs (zap)
//
// The gateway exposes a single route, so limits apply to /execute as a whole
// rather than per endpoint.
//
// Example Usage:
//
//	router.Use(middleware.RequestLogger(logger))
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.POST("/execute",
//		middleware.RateLimit(middleware.DefaultRateLimitConfig()),
//		middleware.GlobalRateLimit(middleware.RateLimitConfig{RequestsPerSecond: 50, Burst: 100}),
//		h.Execute,
//	)
package middleware
