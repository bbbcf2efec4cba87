/*
Package am brokers access to applets.

ApplicationProxyService, published as "appletOE", has one command:

	0 OpenApplicationProxy
	    in:  copy handle to the caller's own Process
	    out: ApplicationProxy object

The handle must name the calling process. The broker looks up the
caller's applet record and returns a proxy bound to it by weak reference.
Each call returns a new proxy.

ApplicationProxy serves:

	0 GetProcessId   -> u64
	1 GetProgramId   -> u64
	2 GetAppletKind  -> u32

Every proxy command fails with ResultAppletGone once its record has been
destroyed, including when a new record exists for the same process.
*/
package am
