package live

import (
	"sync"
	"time"
)

// Store tracks the server's sessions. Attached sessions stay for as
// long as their connection lives; a detached session is kept for the
// resume TTL measured from its last activity, then evicted through
// the onEvict callback.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	closed   bool

	ttl     time.Duration
	onEvict func(*Session)
	done    chan struct{}
}

// NewStore creates a session store and starts its cleanup loop.
func NewStore(ttl, cleanupInterval time.Duration, onEvict func(*Session)) *Store {
	if cleanupInterval <= 0 {
		cleanupInterval = 30 * time.Second
	}
	s := &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		onEvict:  onEvict,
		done:     make(chan struct{}),
	}
	go s.cleanupLoop(cleanupInterval)
	return s
}

// Put registers a session under its id.
func (s *Store) Put(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.sessions[sess.ID] = sess
}

// Get returns a session by id.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Delete removes a session without evicting it, returning it for the
// caller to wind down.
func (s *Store) Delete(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	return sess, ok
}

// Count returns the number of tracked sessions.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops the cleanup loop and empties the store, returning the
// sessions that were still tracked so the server can close them out.
func (s *Store) Close() []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)

	remaining := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		remaining = append(remaining, sess)
	}
	s.sessions = nil
	return remaining
}

func (s *Store) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.done:
			return
		}
	}
}

// cleanup evicts sessions that have been detached longer than the
// TTL.
func (s *Store) cleanup() {
	now := time.Now()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	var expired []*Session
	for id, sess := range s.sessions {
		if sess.detached() && now.Sub(sess.lastActiveAt()) > s.ttl {
			delete(s.sessions, id)
			expired = append(expired, sess)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		if s.onEvict != nil {
			s.onEvict(sess)
		}
	}
}
