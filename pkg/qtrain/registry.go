package qtrain

import "sync"

// State is the registry's position in the configure/execute lifecycle.
type State string

const (
	StateUnconfigured State = "unconfigured"
	StateConfigured   State = "configured"
)

// Registry holds at most one RunDescriptor awaiting execution. The zero value
// is an empty registry. Every method is a single critical section.
type Registry struct {
	mu      sync.RWMutex
	current *RunDescriptor
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Store replaces the slot with d and returns the descriptor it displaced, if any.
func (r *Registry) Store(d RunDescriptor) (previous *RunDescriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous = r.current
	r.current = &d
	return previous
}

// Current returns a copy of the registered descriptor.
func (r *Registry) Current() (RunDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.current == nil {
		return RunDescriptor{}, false
	}
	return *r.current, true
}

func (r *Registry) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.current == nil {
		return StateUnconfigured
	}
	return StateConfigured
}
