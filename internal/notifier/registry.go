package notifier

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry holds the configured notifiers by name.
type Registry struct {
	mu        sync.RWMutex
	notifiers map[string]Notifier
}

func NewRegistry() *Registry {
	return &Registry{notifiers: make(map[string]Notifier)}
}

// Register adds n. Names must be unique.
func (r *Registry) Register(n Notifier) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := n.Name()
	if _, exists := r.notifiers[name]; exists {
		return fmt.Errorf("notifier %s already registered", name)
	}
	r.notifiers[name] = n
	return nil
}

func (r *Registry) Get(name string) (Notifier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, exists := r.notifiers[name]
	if !exists {
		return nil, fmt.Errorf("notifier %s not found", name)
	}
	return n, nil
}

// GetAll returns the notifiers sorted by name.
func (r *Registry) GetAll() []Notifier {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Notifier, 0, len(r.notifiers))
	for _, n := range r.notifiers {
		result = append(result, n)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name() < result[j].Name() })
	return result
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.notifiers)
}

// NotifyAll sends alert to every notifier and collects failures by name.
func (r *Registry) NotifyAll(ctx context.Context, alert Alert) map[string]error {
	errs := make(map[string]error)
	for _, n := range r.GetAll() {
		if err := n.Send(ctx, alert); err != nil {
			errs[n.Name()] = err
		}
	}
	return errs
}

// NotifyAllBatch is NotifyAll for several alerts at once.
func (r *Registry) NotifyAllBatch(ctx context.Context, alerts []Alert) map[string]error {
	errs := make(map[string]error)
	if len(alerts) == 0 {
		return errs
	}
	for _, n := range r.GetAll() {
		if err := n.SendBatch(ctx, alerts); err != nil {
			errs[n.Name()] = err
		}
	}
	return errs
}
