// Package http provides the admin HTTP handlers for appletd.
//
// The admin surface is read-only. It reports liveness, the published
// services with their command tables, the applet registry and metrics.
//
// Endpoints:
//   - Health: / and /health
//   - Services: /services
//   - Applets: /applets, /applets/:pid
//   - Metrics: /metrics/json (Prometheus text is served at /metrics by the server)
//
// Example Usage:
//
//	handlers := http.NewHandlers(applets, directory, metrics)
//	router.GET("/health", handlers.Health)
//	router.GET("/applets/:pid", handlers.GetApplet)
package http
