package applet

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GriffinCanCode/AgentOS/appletd/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/appletd/internal/kernel"
)

var (
	ErrAlreadyExists = errors.New("applet: already exists")
	ErrNotFound      = errors.New("applet: not found")
	ErrUnknownKind   = errors.New("applet: unknown kind")
)

// Stats summarizes the registry
type Stats struct {
	Total  int            `json:"total"`
	ByKind map[string]int `json:"by_kind"`
}

// Registry tracks one Applet record per live process
type Registry struct {
	mu         sync.RWMutex
	applets    map[kernel.ProcessID]*Applet // Protected by mu
	generation uint64                       // Protected by mu
	metrics    *monitoring.Metrics
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		applets: make(map[kernel.ProcessID]*Applet),
	}
}

// WithMetrics adds metrics tracking to the registry
func (r *Registry) WithMetrics(metrics *monitoring.Metrics) *Registry {
	r.metrics = metrics
	return r
}

// Create registers a record for pid. The record is complete before any
// reader can see it.
func (r *Registry) Create(pid kernel.ProcessID, spec Spec) (*Applet, error) {
	if _, ok := kindNames[spec.Kind]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, uint32(spec.Kind))
	}

	a := &Applet{
		ID:        uuid.New().String(),
		ProcessID: pid,
		ProgramID: spec.ProgramID,
		Kind:      spec.Kind,
		CreatedAt: time.Now(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.applets[pid]; exists {
		return nil, fmt.Errorf("%w: process %d", ErrAlreadyExists, pid)
	}
	r.generation++
	a.generation = r.generation
	r.applets[pid] = a
	r.recordCount()

	appCopy := *a
	return &appCopy, nil
}

// Lookup returns the record for pid
func (r *Registry) Lookup(pid kernel.ProcessID) (*Applet, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.applets[pid]
	if !ok {
		return nil, false
	}

	// Return a copy to prevent external modifications
	appCopy := *a
	return &appCopy, true
}

// Resolve returns the record ref names, if it is still registered
func (r *Registry) Resolve(ref Ref) (*Applet, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.applets[ref.ProcessID]
	if !ok || a.generation != ref.Generation {
		return nil, false
	}

	appCopy := *a
	return &appCopy, true
}

// Destroy removes the record for pid. Refs to it stop resolving.
func (r *Registry) Destroy(pid kernel.ProcessID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.applets[pid]; !ok {
		return fmt.Errorf("%w: process %d", ErrNotFound, pid)
	}
	delete(r.applets, pid)
	r.recordCount()
	return nil
}

// List returns every record ordered by process id
func (r *Registry) List() []*Applet {
	r.mu.RLock()
	applets := make([]*Applet, 0, len(r.applets))
	for _, a := range r.applets {
		appCopy := *a
		applets = append(applets, &appCopy)
	}
	r.mu.RUnlock()

	sort.Slice(applets, func(i, j int) bool {
		return applets[i].ProcessID < applets[j].ProcessID
	})
	return applets
}

// Stats returns registry statistics
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Stats{
		Total:  len(r.applets),
		ByKind: make(map[string]int),
	}
	for _, a := range r.applets {
		stats.ByKind[a.Kind.String()]++
	}
	return stats
}

// recordCount publishes the record count (must hold lock)
func (r *Registry) recordCount() {
	if r.metrics != nil {
		r.metrics.SetApplets(len(r.applets))
	}
}
