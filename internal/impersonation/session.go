// Package impersonation lets a platform operator act as a facility user for
// a bounded, audited window. Sessions live in redis with a hard TTL; the
// token minted for the session is only honored while the session record
// exists, so stop and expiry both cut access immediately.
package impersonation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/karimhaddad/clubcore/internal/cache"
)

var ErrSessionNotFound = errors.New("impersonation: session not found")

// Session records who is acting as whom, why, and for how long. Both
// identities stay recoverable for the whole lifetime: losing either linkage
// is an audit defect.
type Session struct {
	ID           uuid.UUID `json:"id"`
	ActorID      uuid.UUID `json:"actor_id"`
	ActorEmail   string    `json:"actor_email"`
	TargetUserID uuid.UUID `json:"target_user_id"`
	TargetEmail  string    `json:"target_email"`
	TenantID     uuid.UUID `json:"tenant_id"`
	Reason       string    `json:"reason"`
	IssuedAt     time.Time `json:"issued_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// SessionStore persists active sessions for their TTL.
type SessionStore interface {
	Put(ctx context.Context, s Session, ttl time.Duration) error
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// RedisSessionStore keeps sessions in redis so expiry is enforced by the
// store itself and survives nothing past the TTL.
type RedisSessionStore struct {
	cache *cache.Cache
}

func NewRedisSessionStore(c *cache.Cache) *RedisSessionStore {
	return &RedisSessionStore{cache: c}
}

func sessionKey(id uuid.UUID) string {
	return fmt.Sprintf("impersonation:session:%s", id)
}

func (s *RedisSessionStore) Put(ctx context.Context, sess Session, ttl time.Duration) error {
	return s.cache.Set(ctx, sessionKey(sess.ID), sess, ttl)
}

func (s *RedisSessionStore) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	var sess Session
	err := s.cache.Get(ctx, sessionKey(id), &sess)
	if errors.Is(err, cache.ErrMiss) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.cache.Delete(ctx, sessionKey(id))
}
