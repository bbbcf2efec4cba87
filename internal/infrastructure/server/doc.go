// Package server assembles appletd from its configuration.
//
// NewServer builds the logger, a private Prometheus registry, the applet
// registry (seeded from the configured file) and the service directory
// with the appletOE broker registered. Run serves the admin API until its
// context is done.
package server
