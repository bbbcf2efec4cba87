package ipc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/appletd/internal/kernel"
	"github.com/GriffinCanCode/AgentOS/appletd/internal/shared/result"
)

func TestCommandSignature(t *testing.T) {
	d, ok := counterService.Lookup(5)
	require.True(t, ok)
	assert.Equal(t, "Inspect", d.Name)
	assert.Equal(t, []kernel.ObjectKind{kernel.KindProcess}, d.Signature.CopyHandles)
	assert.Equal(t, 8, d.Signature.OutSize)

	d, ok = counterService.Lookup(0)
	require.True(t, ok)
	assert.Equal(t, 8, d.Signature.InSize)
	assert.False(t, d.Signature.ClientPID)

	d, ok = counterService.Lookup(1)
	require.True(t, ok)
	assert.True(t, d.Signature.ClientPID)
	assert.Equal(t, 0, d.Signature.InSize)

	d, ok = counterService.Lookup(2)
	require.True(t, ok)
	assert.Equal(t, 1, d.Signature.OutObjects)
}

func TestCommandsOrdered(t *testing.T) {
	cmds := counterService.Commands()
	require.Len(t, cmds, 9)
	for i, d := range cmds {
		assert.Equal(t, CommandID(i), d.ID)
	}
	assert.Equal(t, "Add", counterService.CommandName(0))
	assert.Equal(t, "unknown", counterService.CommandName(99))
}

func TestRegisterRejectsBadDeclarations(t *testing.T) {
	noop := func(*counter, context.Context, struct{}) (struct{}, result.Result) {
		return struct{}{}, result.Success
	}

	tests := []struct {
		name    string
		desc    Descriptor
		wantErr error
	}{
		{
			name:    "duplicate id",
			desc:    Command(0, "Again", noop),
			wantErr: ErrDuplicateCommand,
		},
		{
			name: "string field",
			desc: Command(10, "Str", func(*counter, context.Context, struct{ S string }) (struct{}, result.Result) {
				return struct{}{}, result.Success
			}),
			wantErr: ErrInvalidCommand,
		},
		{
			name: "slice field",
			desc: Command(11, "Slice", func(*counter, context.Context, struct{}) (struct{ B []byte }, result.Result) {
				return struct{ B []byte }{}, result.Success
			}),
			wantErr: ErrInvalidCommand,
		},
		{
			name: "client pid in output",
			desc: Command(12, "PIDOut", func(*counter, context.Context, struct{}) (struct{ P ClientProcessID }, result.Result) {
				return struct{ P ClientProcessID }{}, result.Success
			}),
			wantErr: ErrInvalidCommand,
		},
		{
			name: "client pid twice",
			desc: Command(13, "PIDTwice", func(*counter, context.Context, struct{ A, B ClientProcessID }) (struct{}, result.Result) {
				return struct{}{}, result.Success
			}),
			wantErr: ErrInvalidCommand,
		},
		{
			name: "object in input",
			desc: Command(14, "ObjIn", func(*counter, context.Context, struct{ C *counter }) (struct{}, result.Result) {
				return struct{}{}, result.Success
			}),
			wantErr: ErrInvalidCommand,
		},
		{
			name: "handle in output",
			desc: Command(15, "HandleOut", func(*counter, context.Context, struct{}) (struct{ H InCopyHandle[*kernel.Event] }, result.Result) {
				return struct{ H InCopyHandle[*kernel.Event] }{}, result.Success
			}),
			wantErr: ErrInvalidCommand,
		},
		{
			name: "non-struct input",
			desc: Command(16, "Scalar", func(*counter, context.Context, uint32) (struct{}, result.Result) {
				return struct{}{}, result.Success
			}),
			wantErr: ErrInvalidCommand,
		},
		{
			name:    "nil handler",
			desc:    Command[*counter, struct{}, struct{}](17, "Nil", nil),
			wantErr: ErrInvalidCommand,
		},
		{
			name: "nested unexported field",
			desc: Command(19, "Hidden", func(*counter, context.Context, struct{ V struct{ a uint32 } }) (struct{}, result.Result) {
				return struct{}{}, result.Success
			}),
			wantErr: ErrInvalidCommand,
		},
		{
			name: "nested platform int",
			desc: Command(20, "Int", func(*counter, context.Context, struct{}) (struct{ V struct{ N int } }, result.Result) {
				return struct{ V struct{ N int } }{}, result.Success
			}),
			wantErr: ErrInvalidCommand,
		},
		{
			name: "array of strings",
			desc: Command(21, "Strs", func(*counter, context.Context, struct{ S [2]string }) (struct{}, result.Result) {
				return struct{}{}, result.Success
			}),
			wantErr: ErrInvalidCommand,
		},
		{
			name:    "zero descriptor",
			desc:    Descriptor{ID: 18, Name: "Bare"},
			wantErr: ErrInvalidCommand,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService("bad", Command(0, "Noop", noop))
			err := svc.Register(tt.desc)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

type point struct {
	X, Y int32
	_    [4]byte
}

type pathIn struct {
	Points [2]point
}

type pathOut struct {
	DX int32
	DY int32
}

func TestDispatchNestedValues(t *testing.T) {
	svc := NewService("path", Command(0, "Delta", func(_ *counter, _ context.Context, in pathIn) (pathOut, result.Result) {
		return pathOut{
			DX: in.Points[1].X - in.Points[0].X,
			DY: in.Points[1].Y - in.Points[0].Y,
		}, result.Success
	}))

	d, ok := svc.Lookup(0)
	require.True(t, ok)
	assert.Equal(t, 24, d.Signature.InSize)

	resp := svc.Dispatch(context.Background(), &counter{}, &Request{
		Command: 0,
		Data:    encodeArgs(pathIn{Points: [2]point{{X: 1, Y: 2}, {X: 11, Y: 7}}}),
	})
	require.Equal(t, result.Success, resp.Result)
	assert.Equal(t, encodeArgs(pathOut{DX: 10, DY: 5}), resp.Data)
}

func TestNewServicePanicsOnDuplicate(t *testing.T) {
	noop := func(*counter, context.Context, struct{}) (struct{}, result.Result) {
		return struct{}{}, result.Success
	}
	assert.Panics(t, func() {
		NewService("dup", Command(1, "A", noop), Command(1, "B", noop))
	})
}

func TestDispatchValues(t *testing.T) {
	resp := counterService.Dispatch(context.Background(), &counter{}, &Request{
		Command: 0,
		Data:    encodeArgs(addIn{A: 40, B: 2}),
	})

	require.Equal(t, result.Success, resp.Result)
	assert.Equal(t, encodeArgs(addOut{Sum: 42}), resp.Data)
	assert.Empty(t, resp.Objects)
}

func TestDispatchClientPID(t *testing.T) {
	resp := counterService.Dispatch(context.Background(), &counter{}, &Request{
		Command:   1,
		ClientPID: 0x1234,
	})

	require.Equal(t, result.Success, resp.Result)
	assert.Equal(t, encodeArgs(whoOut{PID: 0x1234}), resp.Data)
}

func TestDispatchRejections(t *testing.T) {
	proc := kernel.NewProcess(7, "app")
	defer proc.Close()
	event := kernel.NewEvent()
	defer event.Close()

	tests := []struct {
		name string
		req  func(t *testing.T) *Request
		want result.Result
	}{
		{
			name: "unknown command",
			req:  func(*testing.T) *Request { return &Request{Command: 99} },
			want: ResultUnknownCommand,
		},
		{
			name: "short payload",
			req:  func(*testing.T) *Request { return &Request{Command: 0, Data: []byte{1, 2, 3}} },
			want: ResultInvalidRequest,
		},
		{
			name: "long payload",
			req:  func(*testing.T) *Request { return &Request{Command: 1, Data: []byte{1}} },
			want: ResultInvalidRequest,
		},
		{
			name: "missing handle",
			req:  func(*testing.T) *Request { return &Request{Command: 5} },
			want: ResultInvalidRequest,
		},
		{
			name: "wrong handle kind",
			req: func(t *testing.T) *Request {
				h, err := event.Copy()
				require.NoError(t, err)
				return &Request{Command: 5, CopyHandles: []*kernel.CopyHandle{h}}
			},
			want: ResultInvalidRequest,
		},
		{
			name: "copy where move expected",
			req: func(t *testing.T) *Request {
				h, err := event.Copy()
				require.NoError(t, err)
				return &Request{Command: 6, CopyHandles: []*kernel.CopyHandle{h}}
			},
			want: ResultInvalidRequest,
		},
		{
			name: "nil handle",
			req: func(*testing.T) *Request {
				return &Request{Command: 5, CopyHandles: []*kernel.CopyHandle{nil}}
			},
			want: ResultInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req(t)
			resp := counterService.Dispatch(context.Background(), &counter{}, req)
			assert.Equal(t, tt.want, resp.Result)
			assert.Nil(t, resp.Data)
			assert.Empty(t, resp.Objects)
			for _, h := range req.CopyHandles {
				if h != nil {
					assert.True(t, h.Released())
				}
			}
		})
	}

	assert.Equal(t, int64(1), kernel.References(mustObject(t, proc)))
	assert.Equal(t, int64(1), kernel.References(mustObject(t, event)))
}

func TestDispatchReleasesCopyHandle(t *testing.T) {
	proc := kernel.NewProcess(77, "app")
	defer proc.Close()

	h, err := proc.Copy()
	require.NoError(t, err)
	assert.Equal(t, int64(2), kernel.References(mustObject(t, proc)))

	resp := counterService.Dispatch(context.Background(), &counter{}, &Request{
		Command:     5,
		CopyHandles: []*kernel.CopyHandle{h},
	})

	require.Equal(t, result.Success, resp.Result)
	assert.Equal(t, encodeArgs(inspectOut{PID: 77}), resp.Data)
	assert.True(t, h.Released())
	assert.Equal(t, int64(1), kernel.References(mustObject(t, proc)))
}

func TestDispatchMoveHandle(t *testing.T) {
	t.Run("taken by handler", func(t *testing.T) {
		event := kernel.NewEvent()
		obj := mustObject(t, event)

		m, err := event.Move()
		require.NoError(t, err)

		resp := counterService.Dispatch(context.Background(), &counter{}, &Request{
			Command:     6,
			MoveHandles: []*kernel.MoveHandle{m},
		})
		require.Equal(t, result.Success, resp.Result)
		assert.Equal(t, int64(1), kernel.References(obj))

		adopted.Lock()
		ref := adopted.refs[len(adopted.refs)-1]
		adopted.Unlock()
		require.NoError(t, ref.Close())
		assert.Equal(t, int64(0), kernel.References(obj))
	})

	t.Run("closed on rejection", func(t *testing.T) {
		event := kernel.NewEvent()
		obj := mustObject(t, event)

		m, err := event.Move()
		require.NoError(t, err)

		resp := counterService.Dispatch(context.Background(), &counter{}, &Request{
			Command:     6,
			Data:        []byte{0},
			MoveHandles: []*kernel.MoveHandle{m},
		})
		assert.Equal(t, ResultInvalidRequest, resp.Result)
		assert.Equal(t, int64(0), kernel.References(obj))
	})
}

func TestDispatchObjects(t *testing.T) {
	resp := counterService.Dispatch(context.Background(), &counter{}, &Request{Command: 2})
	require.Equal(t, result.Success, resp.Result)
	require.Len(t, resp.Objects, 1)
	assert.IsType(t, &counter{}, resp.Objects[0])
	assert.Empty(t, resp.Data)
}

func TestDispatchFailureDropsObjects(t *testing.T) {
	resp := counterService.Dispatch(context.Background(), &counter{}, &Request{Command: 4})
	assert.Equal(t, resultTestFailure, resp.Result)
	assert.Empty(t, resp.Objects)
	assert.True(t, lastFailed.get().closed.Load())
}

func TestDispatchNullObject(t *testing.T) {
	resp := counterService.Dispatch(context.Background(), &counter{}, &Request{Command: 8})
	assert.Equal(t, ResultNullObject, resp.Result)
	assert.Empty(t, resp.Objects)
	assert.True(t, lastFailed.get().closed.Load())
}

func TestDispatchRecoversPanic(t *testing.T) {
	resp := counterService.Dispatch(context.Background(), &counter{}, &Request{Command: 3})
	assert.Equal(t, ResultHandlerPanic, resp.Result)
	assert.Equal(t, "boom", resp.panicValue)
}

type stranger struct{}

func (stranger) Service() *Service { return counterService }

func TestDispatchWrongReceiver(t *testing.T) {
	resp := counterService.Dispatch(context.Background(), stranger{}, &Request{Command: 2})
	assert.Equal(t, ResultInvalidRequest, resp.Result)
}

func mustObject(t *testing.T, ref *kernel.Ref) kernel.Object {
	t.Helper()
	obj, err := ref.Object()
	require.NoError(t, err)
	return obj
}
