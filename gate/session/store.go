// Package session is a thread-safe, TTL-evicting registry of per-session
// gate managers, so a long-running service can hold one *gate.Manager per
// agent conversation without leaking memory across restarts-free uptime.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/petrigate/petrigate/gate"
)

// minCleanupInterval prevents a degenerate ticker interval if a caller
// passes a very small TTL.
const minCleanupInterval = time.Second

// entry pairs a gate manager with the last time it was touched.
type entry struct {
	manager  *gate.Manager
	lastUsed time.Time
}

// Store is a thread-safe in-memory registry of *gate.Manager keyed by
// session ID, with inactivity-based eviction. Not designed for
// multi-replica deployments — each process holds its own sessions.
type Store struct {
	mu            sync.RWMutex
	sessions      map[string]*entry
	ttl           time.Duration
	shadowDefault bool
	done          chan struct{}
}

// NewStore creates a Store evicting sessions idle longer than ttl. Every
// manager it creates (via Create or an auto-created Get) starts with
// Shadow set to shadowDefault. A background goroutine performs the
// eviction; call Close to stop it.
func NewStore(ttl time.Duration, shadowDefault bool) *Store {
	if ttl < minCleanupInterval {
		ttl = minCleanupInterval
	}
	s := &Store{
		sessions:      make(map[string]*entry),
		ttl:           ttl,
		shadowDefault: shadowDefault,
		done:          make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

// Create allocates a new session with a fresh ID and an empty gate
// manager, returning the ID the caller should use for subsequent lookups.
func (s *Store) Create() (string, *gate.Manager) {
	id := uuid.NewString()
	m := gate.NewManager()
	m.Shadow = s.shadowDefault
	s.mu.Lock()
	s.sessions[id] = &entry{manager: m, lastUsed: time.Now()}
	s.mu.Unlock()
	return id, m
}

// Get returns the manager for id, auto-creating one under that exact ID if
// it does not yet exist (so a caller-supplied session ID always resolves).
func (s *Store) Get(id string) *gate.Manager {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		m := gate.NewManager()
		m.Shadow = s.shadowDefault
		e = &entry{manager: m}
		s.sessions[id] = e
	}
	e.lastUsed = time.Now()
	return e.manager
}

// Delete explicitly removes a session (e.g. the client closed it).
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Count returns the number of active sessions.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops the background cleanup goroutine. Safe to call multiple times.
func (s *Store) Close() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

func (s *Store) cleanupLoop() {
	ticker := time.NewTicker(s.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			cutoff := time.Now().Add(-s.ttl)
			for id, e := range s.sessions {
				if e.lastUsed.Before(cutoff) {
					delete(s.sessions, id)
				}
			}
			s.mu.Unlock()
		}
	}
}
