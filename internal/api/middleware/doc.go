// Package middleware provides HTTP middleware for the admin API.
//
// Middleware stack:
//   - RequestLogger: request ids and structured access logs
//   - CORS: read-only cross-origin access for local dashboards
//   - RateLimit: per-IP token bucket with idle client eviction
//
// Example Usage:
//
//	router.Use(middleware.RequestLogger(logger))
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
