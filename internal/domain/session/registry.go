package session

import (
	"sync"

	"github.com/SaideepGaunker/Interview-prep-AI-coach/internal/domain/analysis"
)

// Entry pairs a session's state machine with its analysis history.
// The registry owns both for the session's lifetime; other components
// borrow references through Get and must not retain them past teardown.
type Entry struct {
	Machine  *Machine
	Analysis *analysis.State
}

// Registry is the process-wide table of live sessions. Create, lookup,
// and delete are serialized; the scoring work behind a looked-up entry
// is not. A lookup after deletion returns ErrNotFound so late chunks
// can be dropped instead of crashing the pipeline.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Entry)}
}

// Add registers a fully-constructed session. Registering an id twice
// returns ErrExists.
func (r *Registry) Add(m *Machine, st *analysis.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[m.ID()]; ok {
		return ErrExists
	}
	r.entries[m.ID()] = &Entry{Machine: m, Analysis: st}
	return nil
}

// Get looks up a live session.
func (r *Registry) Get(id string) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

// Delete removes a session from the table. Deleting an unknown id is a
// no-op; racing in-flight lookups are safe either way.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// IDs returns a snapshot of the live session identifiers.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.entries))
	for id := range r.entries {
		out = append(out, id)
	}
	return out
}
