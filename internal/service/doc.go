// Package service is the directory of published IPC services.
//
// Services register under the name of their command table. Clients
// connect by name and get an ipc.Session bound to their process id;
// the directory's session options (logger, metrics, rate limit) apply
// to every session it opens.
//
// Example Usage:
//
//	registry := service.NewRegistry(ipc.WithObserver(metrics))
//	registry.Register(am.NewApplicationProxyService(applets, logger))
//	session, err := registry.Connect("appletOE", pid)
package service
