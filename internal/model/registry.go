package model

import (
	"slices"
	"strings"
	"sync"

	"github.com/ekisa-team/awairs/internal/config"
)

// Registry stores the configured model instances.
type Registry struct {
	models map[string]*Instance
	mu     sync.RWMutex
}

// NewRegistry creates a registry with one unloaded instance per configured model.
func NewRegistry(cfg *config.Config) *Registry {
	r := &Registry{
		models: make(map[string]*Instance, len(cfg.Models)),
	}
	for id, mc := range cfg.Models {
		r.models[id] = NewInstance(id, mc)
	}

	return r
}

// Get returns the model instance with the given ID.
func (r *Registry) Get(id string) (*Instance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	instance, ok := r.models[id]
	return instance, ok
}

// List returns all model instances ordered by ID.
func (r *Registry) List() []*Instance {
	r.mu.RLock()
	defer r.mu.RUnlock()

	instances := make([]*Instance, 0, len(r.models))
	for _, instance := range r.models {
		instances = append(instances, instance)
	}
	slices.SortFunc(instances, func(a, b *Instance) int {
		return strings.Compare(a.ID, b.ID)
	})

	return instances
}
