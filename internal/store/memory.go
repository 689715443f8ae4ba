// internal/store/memory.go
//
// In-memory registry of live game sessions.
// Sessions own a countdown goroutine and are not serializable, so they live
// in process memory only.
//
// Characteristics:
//   - Stores *game.Session objects keyed by ID in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts.
//   - Delete and Close stop the countdown of removed sessions.

package store

import (
	"context"
	"errors"
	"sync"

	"github.com/robalobadob/boggle/internal/game"
)

var ErrNotFound = errors.New("session not found")

// Store defines the registry interface for game sessions.
type Store interface {
	// Save adds or replaces a session. A replaced session is closed.
	Save(ctx context.Context, s *game.Session) error

	// Get retrieves a session by ID.
	// Returns ErrNotFound if the session is not registered.
	Get(ctx context.Context, id string) (*game.Session, error)

	// Delete removes and closes a session.
	Delete(ctx context.Context, id string) error

	// Len reports the number of live sessions.
	Len() int

	// Close closes and removes every session.
	Close()
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu       sync.RWMutex             // guards sessions map
	sessions map[string]*game.Session // keyed by Session.ID
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{sessions: make(map[string]*game.Session)}
}

func (m *memory) Save(ctx context.Context, s *game.Session) error {
	m.mu.Lock()
	old := m.sessions[s.ID]
	m.sessions[s.ID] = s
	m.mu.Unlock()
	if old != nil && old != s {
		old.Close()
	}
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*game.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	s.Close()
	return nil
}

func (m *memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *memory) Close() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*game.Session)
	m.mu.Unlock()
	for _, s := range all {
		s.Close()
	}
}
