// Package registry holds the owner-side set of registered client identifiers.
package registry

import (
	"sort"
	"sync"
)

// Registry is a set of client identifiers. Insertion and removal are
// idempotent; the return values tell the caller whether the set changed.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]struct{}
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		clients: make(map[string]struct{}),
	}
}

// Add inserts id and reports whether it was not already present.
func (r *Registry) Add(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.clients[id]; exists {
		return false
	}
	r.clients[id] = struct{}{}
	return true
}

// Remove deletes id and reports whether it was present.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.clients[id]; !exists {
		return false
	}
	delete(r.clients, id)
	return true
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.clients[id]
	return exists
}

// Size returns the number of registered clients.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Members returns a sorted copy of the registered clients.
func (r *Registry) Members() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make([]string, 0, len(r.clients))
	for id := range r.clients {
		members = append(members, id)
	}
	sort.Strings(members)
	return members
}

// Clear removes every client and returns how many were removed.
func (r *Registry) Clear() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.clients)
	r.clients = make(map[string]struct{})
	return n
}
