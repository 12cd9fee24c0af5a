package csrf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-video-intake/internal/domain"
	"github.com/go-video-intake/internal/pkg/token"
)

// SessionStore persists CSRF sessions until they expire.
type SessionStore interface {
	Put(ctx context.Context, s *domain.CSRFSession) error
	Get(ctx context.Context, sessionID string) (*domain.CSRFSession, error)
}

// Lookup resolves the CSRF token bound to one client session.
type Lookup struct {
	store     SessionStore
	sessionID string
	now       func() time.Time
}

// CSRFToken returns the live token for the session, if any.
func (l Lookup) CSRFToken(ctx context.Context) (string, bool) {
	if l.store == nil || l.sessionID == "" {
		return "", false
	}
	sess, err := l.store.Get(ctx, l.sessionID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			slog.Warn("csrf session lookup failed", "err", err)
		}
		return "", false
	}
	if sess.Expired(l.now()) {
		return "", false
	}
	return sess.Token, true
}

type Service interface {
	Issue(ctx context.Context, sessionID string) (*domain.CSRFSession, error)
	Lookup(sessionID string) Lookup
}

type service struct {
	store SessionStore
	ttl   time.Duration
	now   func() time.Time
	gen   func() (string, error)
}

func NewService(store SessionStore, ttl time.Duration) Service {
	return &service{store: store, ttl: ttl, now: time.Now, gen: token.NewCSRFToken}
}

// Issue mints a fresh token for sessionID, replacing any previous one.
func (s *service) Issue(ctx context.Context, sessionID string) (*domain.CSRFSession, error) {
	tok, err := s.gen()
	if err != nil {
		return nil, err
	}
	sess := &domain.CSRFSession{
		SessionID: sessionID,
		Token:     tok,
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := s.store.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("store csrf session: %w", err)
	}
	return sess, nil
}

func (s *service) Lookup(sessionID string) Lookup {
	return Lookup{store: s.store, sessionID: sessionID, now: s.now}
}
