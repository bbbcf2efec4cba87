// Package main is the entry point for appletd, the applet host.
//
// appletd owns the applet registry and publishes the appletOE broker
// that hands ApplicationProxy sessions to applet processes. A small
// read-only admin API exposes health, the service table, applet records
// and Prometheus metrics.
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Production mode
//	./server -port 8080 -seed /etc/appletd/applets.toml
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
