package registry

import (
	"sync"

	"github.com/agentpod/agentpod/internal/domain/entity"
)

// Registry is the in-memory agent registry. It is the only shared mutable
// state in the manager; a single RWMutex gives concurrent readers and
// serialized writes. Lookups hand out copies, so callers can recompute
// per-request state (Status) on their copy without racing each other.
// Entries are lost on restart.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]*entity.Agent
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		agents: make(map[string]*entity.Agent),
	}
}

// Save inserts or replaces an agent entry. The entry is copied in; later
// caller mutations don't reach the stored record.
func (r *Registry) Save(agent *entity.Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *agent
	r.agents[agent.ID] = &stored
}

// FindByID returns a copy of the agent with the given id.
func (r *Registry) FindByID(id string) (*entity.Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	agent, ok := r.agents[id]
	if !ok {
		return nil, false
	}
	found := *agent
	return &found, true
}

// FindAll returns copies of all registered agents.
func (r *Registry) FindAll() []*entity.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	agents := make([]*entity.Agent, 0, len(r.agents))
	for _, agent := range r.agents {
		found := *agent
		agents = append(agents, &found)
	}
	return agents
}

// Delete removes an agent entry. Returns false if the id was unknown.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.agents[id]; !ok {
		return false
	}
	delete(r.agents, id)
	return true
}

// Count returns the number of registered agents.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}
