// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: colored console output for human readability
//
// Components take a *zap.Logger; the host builds one Logger and hands
// out named children:
//
//	logger, err := logging.New(logging.Config{Level: "info"})
//	logger.Named("ipc").Info("Session opened", zap.String("service", "appletOE"))
package logging
