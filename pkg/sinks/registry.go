package sinks

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/artcraftzone/hierlog/pkg/types"
)

// Registry is the ordered collection of sinks attached to one logger node.
// Every operation is a no-op on an empty registry.
type Registry struct {
	mu    sync.RWMutex
	sinks []Sink
}

// NewRegistry creates an empty sink registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Add appends s. Registration order is preserved.
func (r *Registry) Add(s Sink) {
	if s == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks = append(r.sinks, s)
}

// RemoveByKind detaches and closes every sink of the given kind.
func (r *Registry) RemoveByKind(kind types.SinkKind) error {
	return r.removeIf(func(s Sink) bool { return s.Kind() == kind })
}

// RemoveByName detaches and closes every sink with the given name.
func (r *Registry) RemoveByName(name string) error {
	return r.removeIf(func(s Sink) bool { return s.Name() == name })
}

// Clear detaches and closes every sink.
func (r *Registry) Clear() error {
	return r.removeIf(func(Sink) bool { return true })
}

func (r *Registry) removeIf(match func(Sink) bool) error {
	r.mu.Lock()
	var removed []Sink
	kept := r.sinks[:0]
	for _, s := range r.sinks {
		if match(s) {
			removed = append(removed, s)
		} else {
			kept = append(kept, s)
		}
	}
	for i := len(kept); i < len(r.sinks); i++ {
		r.sinks[i] = nil
	}
	r.sinks = kept
	r.mu.Unlock()

	var errs []error
	for _, s := range removed {
		if err := s.Close(); err != nil {
			errs = append(errs, errors.Wrapf(err, "close %s", s.Name()))
		}
	}
	if len(errs) > 0 {
		return errors.Errorf("close errors: %v", errs)
	}
	return nil
}

// FindByKind returns the sinks of the given kind in registration order.
func (r *Registry) FindByKind(kind types.SinkKind) []Sink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found []Sink
	for _, s := range r.sinks {
		if s.Kind() == kind {
			found = append(found, s)
		}
	}
	return found
}

// FindByName returns the first sink with the given name.
func (r *Registry) FindByName(name string) (Sink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.sinks {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}

// All returns a copy of the attached sinks in registration order.
func (r *Registry) All() []Sink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Sink, len(r.sinks))
	copy(out, r.sinks)
	return out
}

// Len returns the number of attached sinks
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sinks)
}
