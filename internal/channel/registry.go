package channel

import (
	"fmt"
	"sort"
	"sync"

	"github.com/bytedance/gg/gmap"
)

var defaultRegistry = NewRegistry()

// Registry maps channel ids to the running channels. Replies to an inbound
// message are routed back through the channel id carried by the message.
type Registry struct {
	mu    sync.RWMutex
	chans map[string]Channel
}

func NewRegistry() *Registry {
	return &Registry{chans: make(map[string]Channel, 4)}
}

func (r *Registry) Register(ch Channel) error {
	if ch == nil || ch.ID() == "" {
		return fmt.Errorf("channel must have an id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.chans[ch.ID()]; exists {
		return fmt.Errorf("channel already registered: %s", ch.ID())
	}
	r.chans[ch.ID()] = ch
	return nil
}

func (r *Registry) Get(id string) (Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.chans[id]
	if !ok {
		return nil, fmt.Errorf("channel not found: %s", id)
	}
	return ch, nil
}

// List returns the registered channels ordered by id.
func (r *Registry) List() []Channel {
	r.mu.RLock()
	chans := gmap.ToSlice(r.chans, func(_ string, ch Channel) Channel { return ch })
	r.mu.RUnlock()
	sort.Slice(chans, func(i, j int) bool { return chans[i].ID() < chans[j].ID() })
	return chans
}

func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.chans, id)
}

func Register(ch Channel) error { return defaultRegistry.Register(ch) }

func Get(id string) (Channel, error) { return defaultRegistry.Get(id) }

func List() []Channel { return defaultRegistry.List() }

func Unregister(id string) { defaultRegistry.Unregister(id) }
