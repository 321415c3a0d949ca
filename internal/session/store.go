// Package session keeps one dashboard view state per browser session.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/gull-survey-dashboard/internal/domain"
	"github.com/couchcryptid/gull-survey-dashboard/internal/observability"
)

// Session is one browser's view state. Update serializes interaction
// callbacks so each runs to completion before the next.
type Session struct {
	id    string
	clock clockwork.Clock

	mu       sync.Mutex
	state    domain.ViewState
	lastSeen time.Time
}

// ID returns the session identifier stored in the browser cookie.
func (s *Session) ID() string { return s.id }

// Update applies fn to the current state and commits its result atomically.
// The committed state is returned.
func (s *Session) Update(fn func(domain.ViewState) domain.ViewState) domain.ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = fn(s.state)
	s.lastSeen = s.clock.Now()
	return s.state
}

// Snapshot returns the last committed state.
func (s *Session) Snapshot() domain.ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSeen = s.clock.Now()
	return s.state
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Store holds live sessions. Idle sessions expire after ttl; when full, the
// least recently seen session is evicted to make room.
type Store struct {
	clock       clockwork.Clock
	ttl         time.Duration
	maxSessions int
	metrics     *observability.Metrics

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty store.
func NewStore(clock clockwork.Clock, ttl time.Duration, maxSessions int, metrics *observability.Metrics) *Store {
	return &Store{
		clock:       clock,
		ttl:         ttl,
		maxSessions: maxSessions,
		metrics:     metrics,
		sessions:    make(map[string]*Session),
	}
}

// Get returns a live session by ID.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	s, ok := st.sessions[id]
	return s, ok
}

// GetOrCreate returns the session for id, or a fresh session with a new ID
// when id is empty, unknown or expired. created reports the latter.
func (st *Store) GetOrCreate(id string) (s *Session, created bool) {
	if id != "" {
		if s, ok := st.Get(id); ok && !st.expired(s) {
			return s, false
		}
	}

	s = &Session{
		id:       uuid.NewString(),
		clock:    st.clock,
		state:    domain.NewViewState(),
		lastSeen: st.clock.Now(),
	}

	st.mu.Lock()
	if len(st.sessions) >= st.maxSessions {
		st.evictOldestLocked()
	}
	st.sessions[s.id] = s
	n := len(st.sessions)
	st.mu.Unlock()

	st.metrics.SessionsActive.Set(float64(n))
	return s, true
}

// Len reports the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep drops sessions idle for longer than the TTL and returns how many it removed.
func (st *Store) Sweep() int {
	st.mu.Lock()
	removed := 0
	for id, s := range st.sessions {
		if st.expired(s) {
			delete(st.sessions, id)
			removed++
		}
	}
	n := len(st.sessions)
	st.mu.Unlock()

	st.metrics.SessionsActive.Set(float64(n))
	return removed
}

// Run sweeps on every interval tick until ctx is cancelled.
func (st *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := st.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			st.Sweep()
		}
	}
}

func (st *Store) expired(s *Session) bool {
	return st.clock.Since(s.idleSince()) > st.ttl
}

func (st *Store) evictOldestLocked() {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, s := range st.sessions {
		seen := s.idleSince()
		if oldestID == "" || seen.Before(oldest) {
			oldestID, oldest = id, seen
		}
	}
	if oldestID != "" {
		delete(st.sessions, oldestID)
	}
}
