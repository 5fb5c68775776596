package channels

import "sync"

// Registry holds the channels registered as player manager reporters,
// in registration order
type Registry struct {
	mu       sync.RWMutex
	channels []*Channel
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds ch. It returns false if ch was already registered.
func (r *Registry) Register(ch *Channel) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexOf(ch.ID()) >= 0 {
		return false
	}
	r.channels = append(r.channels, ch)
	return true
}

// Unregister removes the channel with the given id
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return false
	}
	r.channels = append(r.channels[:i], r.channels[i+1:]...)
	return true
}

// IsRegistered reports whether the channel with the given id is registered
func (r *Registry) IsRegistered(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.indexOf(id) >= 0
}

// List returns the registered channels
func (r *Registry) List() []*Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Channel, len(r.channels))
	copy(out, r.channels)
	return out
}

// ByInstance returns the registered channels of one instance
func (r *Registry) ByInstance(instanceID string) []*Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Channel
	for _, ch := range r.channels {
		if ch.InstanceID() == instanceID {
			out = append(out, ch)
		}
	}
	return out
}

// Len returns the number of registered channels
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}

func (r *Registry) indexOf(id string) int {
	for i, ch := range r.channels {
		if ch.ID() == id {
			return i
		}
	}
	return -1
}
