package kernel

import (
	"errors"
	"sync/atomic"
)

var (
	ErrHandleClosed = errors.New("kernel: handle closed")
	ErrHandleMoved  = errors.New("kernel: handle moved")
	ErrWrongKind    = errors.New("kernel: wrong object kind")
	ErrDestroyed    = errors.New("kernel: object destroyed")
)

const (
	stateLive uint32 = iota
	stateClosed
	stateMoved
)

// handle is the shared state machine behind Ref, CopyHandle and
// MoveHandle. Once a handle leaves stateLive its object is unreachable.
type handle struct {
	obj   Object
	state atomic.Uint32
}

func (h *handle) object() (Object, error) {
	switch h.state.Load() {
	case stateLive:
		return h.obj, nil
	case stateMoved:
		return nil, ErrHandleMoved
	default:
		return nil, ErrHandleClosed
	}
}

func (h *handle) kind() (ObjectKind, error) {
	obj, err := h.object()
	if err != nil {
		return KindUnknown, err
	}
	return obj.Kind(), nil
}

// close drops the reference held by this handle. It reports false when
// the handle was not live.
func (h *handle) close() bool {
	if !h.state.CompareAndSwap(stateLive, stateClosed) {
		return false
	}
	h.obj.refs().release()
	return true
}

// detach gives up the handle without touching the reference count; the
// caller becomes responsible for the reference.
func (h *handle) detach() (Object, error) {
	if !h.state.CompareAndSwap(stateLive, stateMoved) {
		_, err := h.object()
		return nil, err
	}
	return h.obj, nil
}

// Ref is an owned reference to a kernel object
type Ref struct {
	h handle
}

func newRef(obj Object) *Ref {
	r := &Ref{}
	r.h.obj = obj
	return r
}

// Object returns the referenced object
func (r *Ref) Object() (Object, error) {
	return r.h.object()
}

// Kind returns the kind of the referenced object
func (r *Ref) Kind() (ObjectKind, error) {
	return r.h.kind()
}

// Copy duplicates the reference. Both r and the copy stay valid and
// are released independently.
func (r *Ref) Copy() (*CopyHandle, error) {
	obj, err := r.h.object()
	if err != nil {
		return nil, err
	}
	if !obj.refs().acquire() {
		return nil, ErrDestroyed
	}

	c := &CopyHandle{}
	c.h.obj = obj
	return c, nil
}

// Move transfers ownership into a MoveHandle. r is invalid afterwards.
func (r *Ref) Move() (*MoveHandle, error) {
	obj, err := r.h.detach()
	if err != nil {
		return nil, err
	}

	m := &MoveHandle{}
	m.h.obj = obj
	return m, nil
}

// Close releases the reference. Closing twice is a no-op; closing a
// moved-away reference reports ErrHandleMoved.
func (r *Ref) Close() error {
	if !r.h.close() && r.h.state.Load() == stateMoved {
		return ErrHandleMoved
	}
	return nil
}

// CopyHandle is a duplicated reference handed across a session boundary
type CopyHandle struct {
	h handle
}

// Object returns the referenced object
func (c *CopyHandle) Object() (Object, error) {
	return c.h.object()
}

// Kind returns the kind of the referenced object
func (c *CopyHandle) Kind() (ObjectKind, error) {
	return c.h.kind()
}

// Release drops the duplicated reference. It is idempotent.
func (c *CopyHandle) Release() {
	c.h.close()
}

// Released reports whether the copy has been released
func (c *CopyHandle) Released() bool {
	return c.h.state.Load() != stateLive
}

// MoveHandle carries exclusive ownership of a reference. Take succeeds at
// most once; Close releases the reference if nobody took it.
type MoveHandle struct {
	h handle
}

// Kind returns the kind of the carried object without taking it
func (m *MoveHandle) Kind() (ObjectKind, error) {
	return m.h.kind()
}

// Take claims the reference
func (m *MoveHandle) Take() (*Ref, error) {
	obj, err := m.h.detach()
	if err != nil {
		return nil, err
	}
	return newRef(obj), nil
}

// Close releases the reference unless it was taken. It is idempotent.
func (m *MoveHandle) Close() {
	m.h.close()
}
