/*
Package monitoring provides Prometheus metrics for the host.

Metrics implements ipc.Observer, so passing it to a session through
ipc.WithObserver records every dispatch and session lifecycle event:

	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)
	session := ipc.NewSession(obj, pid, ipc.WithObserver(metrics))

Middleware records admin HTTP requests, and GetSnapshot returns the
current values for JSON endpoints.
*/
package monitoring
