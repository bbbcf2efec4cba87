package ipc

import (
	"github.com/GriffinCanCode/AgentOS/appletd/internal/kernel"
)

// ClientProcessID is filled from the session's client identity. It is
// never read from the request payload.
type ClientProcessID kernel.ProcessID

// InCopyHandle receives a duplicated handle to a T. The framework
// releases it after the handler returns; handlers may release earlier.
type InCopyHandle[T kernel.Object] struct {
	h *kernel.CopyHandle
}

// Get resolves the handle to its object
func (c InCopyHandle[T]) Get() (T, error) {
	var zero T
	if c.h == nil {
		return zero, kernel.ErrHandleClosed
	}
	obj, err := c.h.Object()
	if err != nil {
		return zero, err
	}
	return kernel.As[T](obj)
}

// Release drops the duplicated reference
func (c InCopyHandle[T]) Release() {
	if c.h != nil {
		c.h.Release()
	}
}

func (InCopyHandle[T]) objectKind() kernel.ObjectKind {
	var zero T
	return zero.Kind()
}

func (c *InCopyHandle[T]) bindCopy(h *kernel.CopyHandle) {
	c.h = h
}

// InMoveHandle receives exclusive ownership of a handle to a T. Anything
// not taken by the handler is closed by the framework.
type InMoveHandle[T kernel.Object] struct {
	h *kernel.MoveHandle
}

// Take claims the reference and its object
func (m InMoveHandle[T]) Take() (*kernel.Ref, T, error) {
	var zero T
	if m.h == nil {
		return nil, zero, kernel.ErrHandleClosed
	}
	ref, err := m.h.Take()
	if err != nil {
		return nil, zero, err
	}
	obj, err := ref.Object()
	if err != nil {
		return nil, zero, err
	}
	typed, err := kernel.As[T](obj)
	if err != nil {
		ref.Close()
		return nil, zero, err
	}
	return ref, typed, nil
}

func (InMoveHandle[T]) objectKind() kernel.ObjectKind {
	var zero T
	return zero.Kind()
}

func (m *InMoveHandle[T]) bindMove(h *kernel.MoveHandle) {
	m.h = h
}

type copySlot interface {
	objectKind() kernel.ObjectKind
	bindCopy(*kernel.CopyHandle)
}

type moveSlot interface {
	objectKind() kernel.ObjectKind
	bindMove(*kernel.MoveHandle)
}
