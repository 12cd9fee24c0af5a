package redisinfra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-video-intake/internal/domain"
	"github.com/redis/go-redis/v9"
)

// SessionStore keeps CSRF sessions in Redis so any instance can verify a token.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
}

func NewSessionStore(client redis.UniversalClient, prefix string) *SessionStore {
	if prefix == "" {
		prefix = "csrf"
	}
	return &SessionStore{client: client, prefix: prefix}
}

func (s *SessionStore) Put(ctx context.Context, sess *domain.CSRFSession) error {
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("csrf session %q already expired", sess.SessionID)
	}
	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal csrf session: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+":"+sess.SessionID, b, ttl).Err(); err != nil {
		return fmt.Errorf("redis put csrf session: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, sessionID string) (*domain.CSRFSession, error) {
	b, err := s.client.Get(ctx, s.prefix+":"+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("csrf session %q: %w", sessionID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get csrf session: %w", err)
	}
	var sess domain.CSRFSession
	if err := json.Unmarshal(b, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal csrf session: %w", err)
	}
	if sess.Expired(time.Now()) {
		return nil, fmt.Errorf("csrf session %q: %w", sessionID, domain.ErrNotFound)
	}
	return &sess, nil
}
