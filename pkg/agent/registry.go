package agent

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrRegistrySealed is returned when registering into a sealed registry
	ErrRegistrySealed = errors.New("agent registry is sealed")

	// ErrAgentExists is returned when an agent name is registered twice
	ErrAgentExists = errors.New("agent already registered")
)

// Registry maps agent names to agents
type Registry struct {
	agents map[string]Agent
	sealed bool
	mu     sync.RWMutex
}

// NewRegistry creates a new agent registry
func NewRegistry() *Registry {
	return &Registry{
		agents: make(map[string]Agent),
	}
}

// Register adds an agent under its name
func (r *Registry) Register(a Agent) error {
	if a == nil {
		return errors.New("agent is nil")
	}

	name := a.Name()
	if name == "" {
		return errors.New("agent name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("register %s: %w", name, ErrRegistrySealed)
	}

	if _, exists := r.agents[name]; exists {
		return fmt.Errorf("register %s: %w", name, ErrAgentExists)
	}

	r.agents[name] = a
	return nil
}

// MustRegister registers agents and panics on error
func (r *Registry) MustRegister(agents ...Agent) {
	for _, a := range agents {
		if err := r.Register(a); err != nil {
			panic(err)
		}
	}
}

// Seal prevents further registrations
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sealed = true
}

// Sealed reports whether the registry is sealed
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sealed
}

// Get retrieves an agent by name
func (r *Registry) Get(name string) (Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.agents[name]
	return a, ok
}

// Exists checks if an agent is registered
func (r *Registry) Exists(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Names returns the registered agent names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.agents))
	for name := range r.agents {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// List returns all registered agents sorted by name
func (r *Registry) List() []Agent {
	names := r.Names()

	r.mu.RLock()
	defer r.mu.RUnlock()

	agents := make([]Agent, 0, len(names))
	for _, name := range names {
		agents = append(agents, r.agents[name])
	}

	return agents
}

// Capabilities returns the declared capabilities of every agent
func (r *Registry) Capabilities() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	caps := make(map[string][]string, len(r.agents))
	for name, a := range r.agents {
		caps[name] = a.Capabilities()
	}

	return caps
}

// Count returns the number of registered agents
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.agents)
}
