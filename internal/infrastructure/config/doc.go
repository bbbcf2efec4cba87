// Package config provides 12-factor configuration for the host.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags in cmd/server override environment variables.
//
// Configuration Sections:
//   - Admin: admin HTTP server settings (port, host, enabled)
//   - Logging: log level and output format
//   - Session: per-session rate limit and queue depth
//   - Applets: seed file loaded at startup
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Admin API on %s\n", cfg.Admin.Addr())
//
// Environment Variables:
//   - ADMIN_PORT, ADMIN_HOST, ADMIN_ENABLED
//   - LOG_LEVEL, LOG_DEV
//   - SESSION_RATE_LIMIT_RPS, SESSION_RATE_LIMIT_BURST, SESSION_QUEUE_DEPTH
//   - APPLET_SEED_FILE
package config
