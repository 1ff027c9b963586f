// Package middleware provides HTTP middleware components for the search
// server.
//
// Available middleware:
//   - RateLimiter: Per-client rate limiting using token bucket algorithm
//   - RequestID: Assigns or propagates X-Request-ID
//   - Logging: One structured log line per request
//   - CORS: Cross-origin headers for browser clients
//
// Usage:
//
//	rl := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
//	handler = middleware.Chain(handler,
//		middleware.RequestID,
//		middleware.Logging(log),
//		middleware.CORS(origins),
//		rl.Middleware,
//	)
package middleware
