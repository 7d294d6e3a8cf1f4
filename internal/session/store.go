package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/newthinker/chartdesk/internal/core"
	"github.com/newthinker/chartdesk/internal/market"
)

// Store holds the live sessions keyed by a random ID.
type Store struct {
	sessions map[string]*State
	order    []string // Track insertion order for eviction
	maxSize  int
	idle     time.Duration
	universe *market.Universe
	mu       sync.RWMutex
	now      func() time.Time
}

// NewStore creates a store. Sessions idle longer than idle are removed by
// Sweep; when maxSize is reached the oldest session is evicted.
func NewStore(universe *market.Universe, maxSize int, idle time.Duration) *Store {
	if maxSize < 1 {
		maxSize = 1000
	}
	return &Store{
		sessions: make(map[string]*State),
		order:    make([]string, 0, 16),
		maxSize:  maxSize,
		idle:     idle,
		universe: universe,
		now:      time.Now,
	}
}

// Create starts a new session.
func (s *Store) Create() *State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := NewState(uuid.NewString(), s.universe)
	st.touch(s.now())

	// Evict oldest if at capacity
	if len(s.sessions) >= s.maxSize && len(s.order) > 0 {
		oldest := s.order[0]
		delete(s.sessions, oldest)
		s.order = s.order[1:]
	}

	s.sessions[st.ID] = st
	s.order = append(s.order, st.ID)
	return st
}

// Get returns the session with id and marks it as seen.
func (s *Store) Get(id string) (*State, error) {
	s.mu.RLock()
	st, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return nil, core.ErrSessionNotFound
	}
	st.touch(s.now())
	return st, nil
}

// GetOrCreate returns the session with id, or a new one if it is unknown
// or expired. created reports which.
func (s *Store) GetOrCreate(id string) (st *State, created bool) {
	if id != "" {
		if st, err := s.Get(id); err == nil {
			return st, false
		}
	}
	return s.Create(), true
}

// List returns every live session.
func (s *Store) List() []*State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*State, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, s.sessions[id])
	}
	return result
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes sessions idle for longer than the idle timeout and
// returns how many were removed.
func (s *Store) Sweep() int {
	if s.idle <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.idle)

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.order[:0]
	removed := 0
	for _, id := range s.order {
		if s.sessions[id].idleSince().Before(cutoff) {
			delete(s.sessions, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return removed
}
