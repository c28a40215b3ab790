// Package session provides an in-memory store of named conversation
// histories. A session accumulates the turns produced by successive
// engine runs so that later prompts can see earlier exchanges.
package session

import (
	"sort"
	"sync"

	"github.com/spetersoncode/probe"
)

// Store holds named conversation histories. Histories are append-only:
// no operation removes or reorders a session's turns. The zero value is
// not usable; create one with NewStore. All methods are safe for
// concurrent use.
type Store struct {
	mu       sync.RWMutex
	sessions map[string][]probe.Turn
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string][]probe.Turn),
	}
}

// Get returns a copy of the turns recorded under name. An unseen name
// returns an empty slice, never an error: a session begins the first
// time something is appended to it.
func (s *Store) Get(name string) []probe.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.sessions[name]
	out := make([]probe.Turn, len(turns))
	copy(out, turns)
	return out
}

// Append adds turns to the history recorded under name, creating the
// session if it does not exist yet.
func (s *Store) Append(name string, turns ...probe.Turn) {
	if len(turns) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[name] = append(s.sessions[name], turns...)
}

// Len returns the number of turns recorded under name.
func (s *Store) Len(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions[name])
}

// Names returns the names of all sessions in sorted order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.sessions))
	for name := range s.sessions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
