package signup

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrSessionNotFound is returned for absent and lazily-expired sessions alike.
// Callers must not be able to distinguish the two cases.
var ErrSessionNotFound = errors.New("signup session not found")

// Store holds pending-signup sessions with TTL semantics. The memory-backed
// implementation is the default; the Redis one exists so a multi-instance
// deployment can share sessions without touching the orchestrator.
type Store interface {
	// Put inserts or replaces a session
	Put(ctx context.Context, session *Session) error
	// Get returns a live session, deleting and reporting not-found for
	// expired entries (lazy expiry)
	Get(ctx context.Context, sessionID string) (*Session, error)
	// Peek returns a session without applying lazy expiry. Resend uses it
	// to refresh a session whose TTL has lapsed but whose entry still exists.
	Peek(ctx context.Context, sessionID string) (*Session, error)
	// Take atomically removes and returns a live session. Complete-signup
	// relies on this for its single-use guarantee under concurrent requests.
	Take(ctx context.Context, sessionID string) (*Session, error)
	// MarkVerified atomically sets the session's verified flag. The flag only
	// ever transitions false to true; a later resend resets it via Put.
	MarkVerified(ctx context.Context, sessionID string) error
	// RecordFailedAttempt atomically increments the session's failed-verify
	// counter and returns the new count. It mutates nothing else, so a
	// concurrent successful verify is never rolled back by a losing attempt.
	RecordFailedAttempt(ctx context.Context, sessionID string) (int, error)
	// Delete removes a session; deleting an absent session is not an error
	Delete(ctx context.Context, sessionID string) error
}

// MemoryStore is a process-local Store with a background expiry sweep
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	now      func() time.Time
	stopOnce sync.Once
	stop     chan struct{}
}

// NewMemoryStore creates a MemoryStore and starts its sweep goroutine.
// Call Stop on shutdown.
func NewMemoryStore(sweepInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[string]*Session),
		now:      time.Now,
		stop:     make(chan struct{}),
	}

	go s.sweepLoop(sweepInterval)

	return s
}

func (s *MemoryStore) Put(ctx context.Context, session *Session) error {
	copied := *session

	s.mu.Lock()
	s.sessions[session.ID] = &copied
	s.mu.Unlock()

	return nil
}

func (s *MemoryStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	if session.Expired(s.now()) {
		delete(s.sessions, sessionID)
		return nil, ErrSessionNotFound
	}

	copied := *session
	return &copied, nil
}

func (s *MemoryStore) Peek(ctx context.Context, sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := *session
	return &copied, nil
}

func (s *MemoryStore) Take(ctx context.Context, sessionID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	// Taken either way; an expired entry is gone the moment anyone touches it
	delete(s.sessions, sessionID)

	if session.Expired(s.now()) {
		return nil, ErrSessionNotFound
	}

	copied := *session
	return &copied, nil
}

func (s *MemoryStore) MarkVerified(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}

	if session.Expired(s.now()) {
		delete(s.sessions, sessionID)
		return ErrSessionNotFound
	}

	session.Verified = true
	return nil
}

func (s *MemoryStore) RecordFailedAttempt(ctx context.Context, sessionID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return 0, ErrSessionNotFound
	}

	if session.Expired(s.now()) {
		delete(s.sessions, sessionID)
		return 0, ErrSessionNotFound
	}

	session.Attempts++
	return session.Attempts, nil
}

func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	return nil
}

// Stop terminates the background sweep goroutine
func (s *MemoryStore) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

func (s *MemoryStore) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

// sweep deletes every expired session, bounding memory growth from
// abandoned signups that are never looked up again
func (s *MemoryStore) sweep() {
	now := s.now()

	s.mu.Lock()
	for id, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()
}
