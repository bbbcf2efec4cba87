package service

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/GriffinCanCode/AgentOS/appletd/internal/ipc"
	"github.com/GriffinCanCode/AgentOS/appletd/internal/kernel"
)

var (
	ErrEmptyName     = errors.New("service name cannot be empty")
	ErrDuplicate     = errors.New("service already registered")
	ErrNotRegistered = errors.New("service not registered")
)

// Command describes one command of a published service
type Command struct {
	ID        ipc.CommandID `json:"id"`
	Name      string        `json:"name"`
	Signature ipc.Signature `json:"signature"`
}

// Definition describes a published service
type Definition struct {
	Name     string    `json:"name"`
	Commands []Command `json:"commands"`
}

// Registry is the directory of named services clients can connect to
type Registry struct {
	services sync.Map // name -> ipc.Object
	opts     []ipc.Option
}

// NewRegistry creates a directory. opts apply to every session it opens.
func NewRegistry(opts ...ipc.Option) *Registry {
	return &Registry{opts: opts}
}

// Register publishes obj under its service name
func (r *Registry) Register(obj ipc.Object) error {
	if obj == nil || obj.Service() == nil {
		return fmt.Errorf("%w: object has no command table", ErrEmptyName)
	}
	name := obj.Service().Name()
	if name == "" {
		return ErrEmptyName
	}

	if _, loaded := r.services.LoadOrStore(name, obj); loaded {
		return fmt.Errorf("%w: %s", ErrDuplicate, name)
	}
	return nil
}

// Unregister removes a service. Open sessions keep working.
func (r *Registry) Unregister(name string) {
	r.services.Delete(name)
}

// Get retrieves a service by name
func (r *Registry) Get(name string) (ipc.Object, bool) {
	val, ok := r.services.Load(name)
	if !ok {
		return nil, false
	}
	return val.(ipc.Object), true
}

// List returns every published service ordered by name
func (r *Registry) List() []Definition {
	var defs []Definition
	r.services.Range(func(_, value any) bool {
		defs = append(defs, define(value.(ipc.Object).Service()))
		return true
	})

	sort.Slice(defs, func(i, j int) bool {
		return defs[i].Name < defs[j].Name
	})
	return defs
}

// Connect opens a session to the named service on behalf of pid
func (r *Registry) Connect(name string, pid kernel.ProcessID, opts ...ipc.Option) (*ipc.Session, error) {
	obj, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}

	all := make([]ipc.Option, 0, len(r.opts)+len(opts))
	all = append(all, r.opts...)
	all = append(all, opts...)
	return ipc.NewSession(obj, pid, all...), nil
}

// Stats returns registry statistics
func (r *Registry) Stats() map[string]interface{} {
	var total, totalCommands int
	r.services.Range(func(_, value any) bool {
		total++
		totalCommands += len(value.(ipc.Object).Service().Commands())
		return true
	})

	return map[string]interface{}{
		"total_services": total,
		"total_commands": totalCommands,
	}
}

func define(svc *ipc.Service) Definition {
	descs := svc.Commands()
	def := Definition{
		Name:     svc.Name(),
		Commands: make([]Command, 0, len(descs)),
	}
	for _, d := range descs {
		def.Commands = append(def.Commands, Command{ID: d.ID, Name: d.Name, Signature: d.Signature})
	}
	return def
}
