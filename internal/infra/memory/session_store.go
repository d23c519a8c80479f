package memory

import (
	"sync"
	"time"

	"github.com/naingseiha/Stunity-Enterprise-sub013/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
// Idle sessions age out via a janitor goroutine so memory stays bounded.
type SessionStore struct {
	ttl   time.Duration
	clock func() time.Time

	mu       sync.RWMutex
	sessions map[string]*app.Session

	stop     chan struct{}
	stopOnce sync.Once
}

// NewSessionStore creates a store whose sessions expire after ttl of
// inactivity. A ttl of zero disables expiry.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		clock:    time.Now,
		sessions: make(map[string]*app.Session),
		stop:     make(chan struct{}),
	}
}

func (s *SessionStore) Put(session *app.Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.Code()]; ok {
		return false
	}
	s.sessions[session.Code()] = session
	return true
}

func (s *SessionStore) Get(code string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[code]
	return session, ok
}

func (s *SessionStore) Delete(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, code)
}

// StartSweeper launches the janitor that drops idle sessions every interval.
// Call Stop to shut it down.
func (s *SessionStore) StartSweeper(interval time.Duration) {
	if s.ttl <= 0 || interval <= 0 {
		return
	}
	go func() {
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
	}()
}

// WithClock is test-only for deterministic sweeps.
func (s *SessionStore) WithClock(now func() time.Time) *SessionStore {
	s.clock = now
	return s
}

// Stop terminates the janitor.
func (s *SessionStore) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *SessionStore) sweep() {
	now := s.clock()

	s.mu.RLock()
	var expired []string
	for code, session := range s.sessions {
		if session.Expired(s.ttl, now) {
			expired = append(expired, code)
		}
	}
	s.mu.RUnlock()

	s.mu.Lock()
	for _, code := range expired {
		// Re-check under the write lock; a submit may have landed meanwhile.
		if session, ok := s.sessions[code]; ok && session.Expired(s.ttl, now) {
			delete(s.sessions, code)
		}
	}
	s.mu.Unlock()
}

// Sweep is exported for tests and manual maintenance.
func (s *SessionStore) Sweep() {
	s.sweep()
}

// Len reports the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
