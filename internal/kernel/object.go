package kernel

import (
	"fmt"
	"sync/atomic"
)

// ProcessID identifies a running process for its whole lifetime
type ProcessID uint64

// ObjectKind tags the concrete type behind a handle
type ObjectKind uint8

const (
	KindUnknown ObjectKind = iota
	KindProcess
	KindEvent
)

// String returns the kind name
func (k ObjectKind) String() string {
	switch k {
	case KindProcess:
		return "process"
	case KindEvent:
		return "event"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name
func (k ObjectKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Object is kernel-owned state reachable only through handles. The
// interface is sealed: only types in this package implement it.
type Object interface {
	// Kind must not dereference the receiver; it is called on typed nils.
	Kind() ObjectKind
	refs() *refCount
}

// refCount counts live references. The destructor runs once, when the
// last reference is released.
type refCount struct {
	n       atomic.Int64
	destroy func()
}

func (r *refCount) init(destroy func()) {
	r.n.Store(1)
	r.destroy = destroy
}

// acquire adds a reference unless the object is already destroyed
func (r *refCount) acquire() bool {
	for {
		cur := r.n.Load()
		if cur <= 0 {
			return false
		}
		if r.n.CompareAndSwap(cur, cur+1) {
			return true
		}
	}
}

func (r *refCount) release() {
	n := r.n.Add(-1)
	switch {
	case n == 0:
		if r.destroy != nil {
			r.destroy()
		}
	case n < 0:
		panic("kernel: reference released twice")
	}
}

// References returns the number of live references to obj
func References(obj Object) int64 {
	return obj.refs().n.Load()
}

// As narrows obj to a concrete object type
func As[T Object](obj Object) (T, error) {
	typed, ok := obj.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: have %s, want %s", ErrWrongKind, obj.Kind(), zero.Kind())
	}
	return typed, nil
}

// Process is the kernel object behind a process handle
type Process struct {
	rc   refCount
	pid  ProcessID
	name string

	destroyed atomic.Bool
}

// NewProcess creates a process object and returns the owning reference
func NewProcess(pid ProcessID, name string) *Ref {
	p := &Process{pid: pid, name: name}
	p.rc.init(func() { p.destroyed.Store(true) })
	return newRef(p)
}

// Kind implements Object
func (*Process) Kind() ObjectKind { return KindProcess }

func (p *Process) refs() *refCount { return &p.rc }

// ProcessID returns the process identity
func (p *Process) ProcessID() ProcessID { return p.pid }

// Name returns the process name
func (p *Process) Name() string { return p.name }

// Destroyed reports whether every reference has been released
func (p *Process) Destroyed() bool { return p.destroyed.Load() }

// Event is a signalable kernel object
type Event struct {
	rc       refCount
	signaled atomic.Bool
}

// NewEvent creates an event and returns the owning reference
func NewEvent() *Ref {
	e := &Event{}
	e.rc.init(nil)
	return newRef(e)
}

// Kind implements Object
func (*Event) Kind() ObjectKind { return KindEvent }

func (e *Event) refs() *refCount { return &e.rc }

// Signal sets the event
func (e *Event) Signal() { e.signaled.Store(true) }

// Clear resets the event
func (e *Event) Clear() { e.signaled.Store(false) }

// Signaled reports the event state
func (e *Event) Signaled() bool { return e.signaled.Load() }
