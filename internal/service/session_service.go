package service

import (
	"context"
	"sync"
	"time"

	"socialdeck/internal/middleware"
	"socialdeck/internal/models"

	"github.com/redis/go-redis/v9"
)

// SessionService revokes tokens. Revocations live in Redis until the token
// would have expired; without Redis they are kept in process.
type SessionService struct {
	rdb *redis.Client
	now func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewSessionService(rdb *redis.Client, now func() time.Time) *SessionService {
	if now == nil {
		now = time.Now
	}
	return &SessionService{rdb: rdb, now: now, revoked: make(map[string]time.Time)}
}

// Revoke blacklists the session's token until it expires.
func (s *SessionService) Revoke(ctx context.Context, session models.Session) error {
	if session.TokenID == "" {
		return models.NewValidationError("Token has no id and cannot be revoked")
	}
	ttl := session.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}

	if s.rdb == nil {
		s.mu.Lock()
		s.revoked[session.TokenID] = session.ExpiresAt
		s.mu.Unlock()
		return nil
	}
	if err := s.rdb.Set(ctx, middleware.RevocationKey(session.TokenID), "1", ttl).Err(); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// IsRevoked reports whether jti was revoked. Redis errors count as not revoked.
func (s *SessionService) IsRevoked(ctx context.Context, jti string) bool {
	if jti == "" {
		return false
	}
	if s.rdb == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		exp, ok := s.revoked[jti]
		if !ok {
			return false
		}
		if !s.now().Before(exp) {
			delete(s.revoked, jti)
			return false
		}
		return true
	}
	n, err := s.rdb.Exists(ctx, middleware.RevocationKey(jti)).Result()
	return err == nil && n > 0
}
