package session

import (
	"slices"
	"sync"
	"time"
)

// DefaultHistoryCap is the number of recent codes kept per session.
const DefaultHistoryCap = 10

// State is the per-session application state. The action handler receives a
// State and returns the updated one; nothing else mutates it.
type State struct {
	History []string
	Current string
}

// Remember records code as queried. A code already present is neither added
// again nor moved. When limit > 0 the oldest entries are evicted to keep at most
// limit codes; limit == 0 keeps everything.
func (s State) Remember(code string, limit int) State {
	out := State{History: slices.Clone(s.History), Current: s.Current}
	if slices.Contains(out.History, code) {
		return out
	}
	out.History = append(out.History, code)
	if limit > 0 && len(out.History) > limit {
		out.History = out.History[len(out.History)-limit:]
	}
	return out
}

// Store keeps one State per session id. Sessions idle longer than IdleTTL
// are dropped, and at most MaxSessions are held; zero disables either limit.
type Store struct {
	IdleTTL     time.Duration
	MaxSessions int
	Now         func() time.Time

	mu     sync.Mutex
	states map[string]entry
}

type entry struct {
	state State
	seen  time.Time
}

// NewStore creates an unbounded Store.
func NewStore() *Store {
	return NewBoundedStore(0, 0)
}

// NewBoundedStore creates a Store with idle expiry and a session cap.
func NewBoundedStore(idleTTL time.Duration, maxSessions int) *Store {
	return &Store{
		IdleTTL:     idleTTL,
		MaxSessions: maxSessions,
		Now:         time.Now,
		states:      make(map[string]entry),
	}
}

func (s *Store) expired(e entry, now time.Time) bool {
	return s.IdleTTL > 0 && now.Sub(e.seen) >= s.IdleTTL
}

// Get returns the state for id, or the zero State if it is unknown or expired.
// A hit counts as activity.
func (s *Store) Get(id string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.states[id]
	if !ok {
		return State{}
	}
	now := s.Now()
	if s.expired(e, now) {
		delete(s.states, id)
		return State{}
	}
	e.seen = now
	s.states[id] = e
	return State{History: slices.Clone(e.state.History), Current: e.state.Current}
}

// Put replaces the state for id. Adding a session to a full store first drops
// expired sessions, then the least recently used one.
func (s *Store) Put(id string, st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.Now()
	if _, ok := s.states[id]; !ok && s.MaxSessions > 0 && len(s.states) >= s.MaxSessions {
		s.sweep(now)
		if len(s.states) >= s.MaxSessions {
			s.evictOldest()
		}
	}
	s.states[id] = entry{state: st, seen: now}
}

// Sweep drops expired sessions and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweep(s.Now())
}

func (s *Store) sweep(now time.Time) int {
	n := 0
	for id, e := range s.states {
		if s.expired(e, now) {
			delete(s.states, id)
			n++
		}
	}
	return n
}

func (s *Store) evictOldest() {
	var oldest string
	var seen time.Time
	for id, e := range s.states {
		if oldest == "" || e.seen.Before(seen) {
			oldest, seen = id, e.seen
		}
	}
	delete(s.states, oldest)
}

// Len returns the number of tracked sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}
