package collector

import (
	"sync"

	"github.com/newthinker/chartdesk/internal/core"
)

// Registry manages collectors and routes asset classes to them
type Registry struct {
	mu         sync.RWMutex
	collectors map[string]Collector
	order      []string
	routes     map[core.AssetClass]string
}

// NewRegistry creates a new collector registry
func NewRegistry() *Registry {
	return &Registry{
		collectors: make(map[string]Collector),
		routes:     make(map[core.AssetClass]string),
	}
}

// Register adds a collector to the registry. Re-registering a name replaces it.
func (r *Registry) Register(c Collector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.collectors[c.Name()]; !exists {
		r.order = append(r.order, c.Name())
	}
	r.collectors[c.Name()] = c
}

// Route pins an asset class to a named collector.
func (r *Registry) Route(class core.AssetClass, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[class] = name
}

// Get retrieves a collector by name
func (r *Registry) Get(name string) (Collector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.collectors[name]
	return c, ok
}

// ForClass returns the routed collector for class, or else the first
// registered collector that supports it.
func (r *Registry) ForClass(class core.AssetClass) (Collector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name, ok := r.routes[class]; ok {
		if c, ok := r.collectors[name]; ok {
			return c, true
		}
	}
	for _, name := range r.order {
		if c := r.collectors[name]; Supports(c, class) {
			return c, true
		}
	}
	return nil, false
}

// GetAll returns all registered collectors in registration order
func (r *Registry) GetAll() []Collector {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Collector, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.collectors[name])
	}
	return result
}
