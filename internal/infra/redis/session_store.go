package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/naingseiha/Stunity-Enterprise-sub013/internal/app"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Sessions still live in a local in-memory map so the engine's guarded
//     critical sections stay in-process.
//   - Redis marks session liveness with a TTL key per join code, which also
//     reserves the code across instances; the key is refreshed on access so
//     active sessions do not age out.
//   - For true distribution you'd pair this with shared ledger storage and a
//     projector that rebuilds session state on another node.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration

	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Put(session *app.Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	code := session.Code()
	if _, ok := s.sessions[code]; ok {
		return false
	}

	// SETNX reserves the join code across instances.
	ok, err := s.client.SetNX(context.Background(), s.key(code), session.HostID(), s.ttl).Result()
	if err == nil && !ok {
		return false
	}
	s.sessions[code] = session
	return true
}

func (s *SessionStore) Get(code string) (*app.Session, bool) {
	s.mu.RLock()
	session, ok := s.sessions[code]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	// best-effort liveness refresh
	_ = s.client.Expire(context.Background(), s.key(code), s.ttl).Err()
	return session, true
}

func (s *SessionStore) Delete(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, code)
	_ = s.client.Del(context.Background(), s.key(code)).Err()
}

// SweepExpired drops local sessions whose liveness key has aged out of Redis.
func (s *SessionStore) SweepExpired(ctx context.Context) {
	s.mu.RLock()
	codes := make([]string, 0, len(s.sessions))
	for code := range s.sessions {
		codes = append(codes, code)
	}
	s.mu.RUnlock()

	for _, code := range codes {
		n, err := s.client.Exists(ctx, s.key(code)).Result()
		if err != nil || n > 0 {
			continue
		}
		s.mu.Lock()
		delete(s.sessions, code)
		s.mu.Unlock()
	}
}

// StartSweeper launches a janitor that reconciles with Redis expiry.
// Cancel ctx to stop it.
func (s *SessionStore) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.SweepExpired(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (s *SessionStore) key(code string) string {
	return "live:session:" + code
}
