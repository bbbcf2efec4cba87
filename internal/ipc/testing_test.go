package ipc

import (
	"context"
	"encoding/binary"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GriffinCanCode/AgentOS/appletd/internal/kernel"
	"github.com/GriffinCanCode/AgentOS/appletd/internal/shared/result"
)

var resultTestFailure = result.Define(result.ModuleNone, 4100, "TestFailure")

// counter is a small object used to drive the framework in tests
type counter struct {
	closed  atomic.Bool
	gate    chan struct{}
	blocked atomic.Bool
	calls   atomic.Int32
}

func (*counter) Service() *Service { return counterService }

func (c *counter) Close() error {
	c.closed.Store(true)
	return nil
}

type addIn struct {
	A uint32
	B uint32
}

type addOut struct {
	Sum uint64
}

type whoIn struct {
	PID ClientProcessID
}

type whoOut struct {
	PID uint64
}

type spawnOut struct {
	Child *counter
}

type pairOut struct {
	First  *counter
	Second *counter
}

type inspectIn struct {
	Process InCopyHandle[*kernel.Process]
}

type inspectOut struct {
	PID uint64
}

type adoptIn struct {
	Event InMoveHandle[*kernel.Event]
}

var adopted = struct {
	sync.Mutex
	refs []*kernel.Ref
}{}

var counterService = NewService("counter",
	Command(0, "Add", (*counter).add),
	Command(1, "Who", (*counter).who),
	Command(2, "Spawn", (*counter).spawn),
	Command(3, "Panic", (*counter).panics),
	Command(4, "Fail", (*counter).fail),
	Command(5, "Inspect", (*counter).inspect),
	Command(6, "Adopt", (*counter).adopt),
	Command(7, "Block", (*counter).block),
	Command(8, "SpawnHalf", (*counter).spawnHalf),
)

func (c *counter) add(_ context.Context, in addIn) (addOut, result.Result) {
	c.calls.Add(1)
	return addOut{Sum: uint64(in.A) + uint64(in.B)}, result.Success
}

func (c *counter) who(_ context.Context, in whoIn) (whoOut, result.Result) {
	c.calls.Add(1)
	return whoOut{PID: uint64(in.PID)}, result.Success
}

func (c *counter) spawn(context.Context, struct{}) (spawnOut, result.Result) {
	return spawnOut{Child: &counter{}}, result.Success
}

func (c *counter) panics(context.Context, struct{}) (struct{}, result.Result) {
	panic("boom")
}

func (c *counter) fail(context.Context, struct{}) (spawnOut, result.Result) {
	return spawnOut{Child: lastFailed.swap(&counter{})}, resultTestFailure
}

func (c *counter) inspect(_ context.Context, in inspectIn) (inspectOut, result.Result) {
	p, err := in.Process.Get()
	if err != nil {
		return inspectOut{}, ResultInvalidRequest
	}
	return inspectOut{PID: uint64(p.ProcessID())}, result.Success
}

func (c *counter) adopt(_ context.Context, in adoptIn) (struct{}, result.Result) {
	ref, _, err := in.Event.Take()
	if err != nil {
		return struct{}{}, ResultInvalidRequest
	}
	adopted.Lock()
	adopted.refs = append(adopted.refs, ref)
	adopted.Unlock()
	return struct{}{}, result.Success
}

func (c *counter) block(context.Context, struct{}) (struct{}, result.Result) {
	c.blocked.Store(true)
	<-c.gate
	c.calls.Add(1)
	return struct{}{}, result.Success
}

func (c *counter) spawnHalf(context.Context, struct{}) (pairOut, result.Result) {
	first := &counter{}
	lastFailed.swap(first)
	return pairOut{First: first}, result.Success
}

// lastFailed remembers the object most recently dropped by a handler
type failedSlot struct {
	mu  sync.Mutex
	obj *counter
}

var lastFailed failedSlot

func (f *failedSlot) swap(c *counter) *counter {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.obj = c
	return c
}

func (f *failedSlot) get() *counter {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.obj
}

func encodeArgs(v any) []byte {
	buf, err := binary.Append(nil, binary.LittleEndian, v)
	if err != nil {
		panic(err)
	}
	return buf
}

// recordingObserver captures dispatch events
type recordingObserver struct {
	mu      sync.Mutex
	results []result.Result
	opened  int
	closed  int
}

func (r *recordingObserver) ObserveDispatch(_, _ string, res result.Result, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

func (r *recordingObserver) SessionOpened(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opened++
}

func (r *recordingObserver) SessionClosed(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed++
}

func (r *recordingObserver) snapshot() ([]result.Result, int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]result.Result(nil), r.results...), r.opened, r.closed
}
