package services

import (
	"sort"
	"sync"
)

// Registry looks up registered service definitions.
// Implementations own their timeout, retry and caching policy.
type Registry interface {
	// HasServices reports whether any definitions exist at all
	HasServices() bool

	// FindService returns the definition matching the service, or nil
	FindService(service Service) *RegisteredService
}

// SelectionStrategy resolves the service an authentication request is
// actually made for (e.g. unwrapping a delegated protocol's callback)
type SelectionStrategy interface {
	ResolveService(service *Service) *Service
}

// DefaultSelectionStrategy returns the service unchanged
type DefaultSelectionStrategy struct{}

// ResolveService returns the given service
func (DefaultSelectionStrategy) ResolveService(service *Service) *Service {
	return service
}

// InMemoryRegistry holds definitions in memory, ordered by evaluation order
type InMemoryRegistry struct {
	mu       sync.RWMutex
	services []*RegisteredService
}

// NewInMemoryRegistry creates a registry holding the given definitions
func NewInMemoryRegistry(defs ...*RegisteredService) *InMemoryRegistry {
	r := &InMemoryRegistry{}
	for _, def := range defs {
		r.Save(def)
	}
	return r
}

// Save adds a definition, replacing any existing one with the same ID
func (r *InMemoryRegistry) Save(def *RegisteredService) {
	if def == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.services {
		if existing.ID == def.ID {
			r.services[i] = def
			r.sortLocked()
			return
		}
	}
	r.services = append(r.services, def)
	r.sortLocked()
}

// Services returns a snapshot of all definitions in evaluation order
func (r *InMemoryRegistry) Services() []*RegisteredService {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*RegisteredService, len(r.services))
	copy(out, r.services)
	return out
}

// HasServices reports whether any definitions are registered
func (r *InMemoryRegistry) HasServices() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.services) > 0
}

// FindService returns the first definition, in evaluation order, matching the service
func (r *InMemoryRegistry) FindService(service Service) *RegisteredService {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, def := range r.services {
		if def.Matches(service) {
			return def
		}
	}
	return nil
}

func (r *InMemoryRegistry) sortLocked() {
	sort.SliceStable(r.services, func(i, j int) bool {
		if r.services[i].EvaluationOrder != r.services[j].EvaluationOrder {
			return r.services[i].EvaluationOrder < r.services[j].EvaluationOrder
		}
		return r.services[i].ID < r.services[j].ID
	})
}
