// Package ipc dispatches commands to server-side objects.
//
// A Service is a flat table of commands declared with Command. Each
// command binds a numeric id to a typed handler whose input and output
// structs describe the wire shape:
//
//   - fixed-size values travel little-endian in Request.Data, in field order
//   - ClientProcessID is filled from the session, never from the payload
//   - InCopyHandle and InMoveHandle receive kernel handles, in field order
//   - fields implementing Object in the output become new sessions
//
// Service.Dispatch validates a request against its command's shape,
// invokes the handler, and releases every handle the request carried.
// A failing result never carries data or objects.
//
// Session runs one goroutine per served object and delivers requests in
// arrival order.
package ipc
