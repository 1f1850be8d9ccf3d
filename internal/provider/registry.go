package provider

import (
	"fmt"
	"sort"
	"sync"

	"github.com/bytedance/gg/gmap"

	"github.com/tgifai/reminder/internal/pkg/logs"
)

var defaultRegistry = NewRegistry()

// Registry tracks the live model backends so the process can close them on
// shutdown.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider, 1)}
}

// Register adds p under its ID. Registering a second provider with an ID in
// use is an error.
func (r *Registry) Register(p Provider) error {
	if p == nil || p.ID() == "" {
		return fmt.Errorf("provider must have an id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.providers[p.ID()]; exists {
		return fmt.Errorf("provider already registered: %s", p.ID())
	}
	r.providers[p.ID()] = p
	return nil
}

func (r *Registry) Get(id string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	if !ok {
		return nil, fmt.Errorf("provider not found: %s", id)
	}
	return p, nil
}

// CloseAll closes and forgets every registered provider.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	ids := gmap.ToSlice(r.providers, func(id string, _ Provider) string { return id })
	providers := r.providers
	r.providers = make(map[string]Provider, 1)
	r.mu.Unlock()

	sort.Strings(ids)
	for _, id := range ids {
		if err := providers[id].Close(); err != nil {
			logs.Warn("[provider:%s] close failed: %v", id, err)
		}
	}
}

func Register(p Provider) error { return defaultRegistry.Register(p) }

func Get(id string) (Provider, error) { return defaultRegistry.Get(id) }

func CloseAll() { defaultRegistry.CloseAll() }
