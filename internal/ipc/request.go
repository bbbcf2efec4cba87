package ipc

import (
	"io"

	"github.com/GriffinCanCode/AgentOS/appletd/internal/kernel"
	"github.com/GriffinCanCode/AgentOS/appletd/internal/shared/result"
)

var (
	ResultUnknownCommand = result.Define(result.ModuleIPC, 221, "UnknownCommand")
	ResultInvalidRequest = result.Define(result.ModuleIPC, 222, "InvalidRequest")
	ResultNullObject     = result.Define(result.ModuleIPC, 223, "NullObject")
	ResultHandlerPanic   = result.Define(result.ModuleIPC, 224, "HandlerPanic")
	ResultSessionClosed  = result.Define(result.ModuleIPC, 225, "SessionClosed")
	ResultRateLimited    = result.Define(result.ModuleIPC, 226, "RateLimited")
)

// CommandID selects a command within a service
type CommandID uint32

// Object is a server-side object reachable through a session. Service
// returns the object's command table, shared by every instance of the type.
type Object interface {
	Service() *Service
}

// Request is one inbound command. The request owns its handles until
// dispatch finishes.
type Request struct {
	Command     CommandID
	Data        []byte
	CopyHandles []*kernel.CopyHandle
	MoveHandles []*kernel.MoveHandle

	// ClientPID is stamped by the transport; anything the client put here
	// is overwritten.
	ClientPID kernel.ProcessID
}

// release drops every handle still held by the request
func (r *Request) release() {
	for _, h := range r.CopyHandles {
		if h != nil {
			h.Release()
		}
	}
	for _, h := range r.MoveHandles {
		if h != nil {
			h.Close()
		}
	}
}

// Response is the outcome of Dispatch. A failing Result never carries
// Data or Objects.
type Response struct {
	Result  result.Result
	Data    []byte
	Objects []Object

	panicValue any
}

func failure(r result.Result) *Response {
	return &Response{Result: r}
}

// closeObject closes obj if it owns resources
func closeObject(obj Object) {
	if c, ok := obj.(io.Closer); ok {
		c.Close()
	}
}
