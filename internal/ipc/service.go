package ipc

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

var (
	ErrDuplicateCommand = errors.New("ipc: duplicate command")
	ErrInvalidCommand   = errors.New("ipc: invalid command declaration")
)

// Service is a flat command table. It is filled during construction and
// read-only afterwards, so Dispatch needs no locking.
type Service struct {
	name     string
	commands map[CommandID]Descriptor
}

// NewService builds a command table and panics on any declaration error.
// Use it for package-level tables so a bad table stops the process at
// startup.
func NewService(name string, descs ...Descriptor) *Service {
	s := &Service{
		name:     name,
		commands: make(map[CommandID]Descriptor, len(descs)),
	}
	for _, d := range descs {
		s.MustRegister(d)
	}
	return s
}

// Name returns the service name
func (s *Service) Name() string {
	return s.name
}

// Register adds a command. It fails if the id is taken or the descriptor
// carries a declaration error.
func (s *Service) Register(d Descriptor) error {
	if d.err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidCommand, s.name, d.err)
	}
	if d.invoke == nil {
		return fmt.Errorf("%w: %s: command %d (%s) was not built with Command", ErrInvalidCommand, s.name, d.ID, d.Name)
	}
	if existing, ok := s.commands[d.ID]; ok {
		return fmt.Errorf("%w: %s: id %d used by %s and %s", ErrDuplicateCommand, s.name, d.ID, existing.Name, d.Name)
	}

	s.commands[d.ID] = d
	return nil
}

// MustRegister is Register that panics
func (s *Service) MustRegister(d Descriptor) {
	if err := s.Register(d); err != nil {
		panic(err)
	}
}

// Lookup returns the descriptor for id
func (s *Service) Lookup(id CommandID) (Descriptor, bool) {
	d, ok := s.commands[id]
	return d, ok
}

// CommandName returns the name of id, or "unknown"
func (s *Service) CommandName(id CommandID) string {
	if d, ok := s.commands[id]; ok {
		return d.Name
	}
	return "unknown"
}

// Commands returns every descriptor ordered by id
func (s *Service) Commands() []Descriptor {
	out := make([]Descriptor, 0, len(s.commands))
	for _, d := range s.commands {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

// Dispatch routes req to its handler on self. Handles still held by req
// are released before Dispatch returns, whatever the outcome.
func (s *Service) Dispatch(ctx context.Context, self Object, req *Request) (resp *Response) {
	defer req.release()

	d, ok := s.commands[req.Command]
	if !ok {
		return failure(ResultUnknownCommand)
	}

	defer func() {
		if r := recover(); r != nil {
			resp = failure(ResultHandlerPanic)
			resp.panicValue = r
		}
	}()

	resp = d.invoke(ctx, self, req)
	if resp.Result.IsError() {
		resp.Data = nil
		resp.Objects = nil
	}
	return resp
}
