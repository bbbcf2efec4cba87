package ipc

import (
	"context"
	"fmt"
	"reflect"

	"github.com/GriffinCanCode/AgentOS/appletd/internal/kernel"
	"github.com/GriffinCanCode/AgentOS/appletd/internal/shared/result"
)

// Signature is the declared wire shape of a command
type Signature struct {
	InSize      int                 `json:"in_size"`
	CopyHandles []kernel.ObjectKind `json:"copy_handles,omitempty"`
	MoveHandles []kernel.ObjectKind `json:"move_handles,omitempty"`
	ClientPID   bool                `json:"client_pid"`
	OutSize     int                 `json:"out_size"`
	OutObjects  int                 `json:"out_objects"`
}

// Descriptor binds a command id to a typed handler
type Descriptor struct {
	ID        CommandID
	Name      string
	Signature Signature

	invoke func(ctx context.Context, self Object, req *Request) *Response
	err    error
}

// Command declares a command. fn runs on objects of type S; In and Out are
// structs whose fields declare the wire shape. Shape errors are carried in
// the descriptor and reported when it is registered.
func Command[S Object, In, Out any](id CommandID, name string, fn func(self S, ctx context.Context, in In) (Out, result.Result)) (d Descriptor) {
	d = Descriptor{ID: id, Name: name}

	defer func() {
		if r := recover(); r != nil {
			d.err = fmt.Errorf("command %d (%s): %v", id, name, r)
		}
	}()

	in, err := inputLayout(reflect.TypeFor[In]())
	if err != nil {
		d.err = fmt.Errorf("command %d (%s) input: %w", id, name, err)
		return d
	}
	out, err := outputLayout(reflect.TypeFor[Out]())
	if err != nil {
		d.err = fmt.Errorf("command %d (%s) output: %w", id, name, err)
		return d
	}
	if fn == nil {
		d.err = fmt.Errorf("command %d (%s): nil handler", id, name)
		return d
	}

	d.Signature = Signature{
		InSize:      in.size,
		CopyHandles: in.copyKinds,
		MoveHandles: in.moveKinds,
		ClientPID:   in.clientPID,
		OutSize:     out.size,
		OutObjects:  out.objectCount,
	}

	d.invoke = func(ctx context.Context, self Object, req *Request) *Response {
		recv, ok := self.(S)
		if !ok {
			return failure(ResultInvalidRequest)
		}

		var args In
		if res := in.decode(reflect.ValueOf(&args).Elem(), req); res.IsError() {
			return failure(res)
		}

		ret, res := fn(recv, ctx, args)
		rv := reflect.ValueOf(&ret).Elem()
		if res.IsError() {
			out.closeObjects(rv)
			return failure(res)
		}
		return out.encode(rv)
	}

	return d
}
