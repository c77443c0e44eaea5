package game

import (
	"fmt"
	"sync"
)

// Registry maps game type names to their implementations. Rooms look the
// game up here at creation and again when restoring from a snapshot.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Game
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Game)}
}

// Register adds a game type under its Info().Name. Registering the same
// name twice is a programming error and panics.
func (r *Registry) Register(g Game) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := g.Info().Name
	if _, dup := r.byName[name]; dup {
		panic(fmt.Sprintf("game %q already registered", name))
	}
	r.byName[name] = g
}

// Get looks a game type up by name.
func (r *Registry) Get(name string) (Game, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.byName[name]
	return g, ok
}

// List describes every registered game type for the lobby.
func (r *Registry) List() []GameInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	infos := make([]GameInfo, 0, len(r.byName))
	for _, g := range r.byName {
		infos = append(infos, g.Info())
	}
	return infos
}
