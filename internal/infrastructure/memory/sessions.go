package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-video-intake/internal/domain"
)

// SessionStore keeps CSRF sessions in a map, dropping expired ones on write.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.CSRFSession
	now      func() time.Time
}

// NewSessionStore returns an empty store. A nil now uses time.Now.
func NewSessionStore(now func() time.Time) *SessionStore {
	if now == nil {
		now = time.Now
	}
	return &SessionStore{sessions: make(map[string]domain.CSRFSession), now: now}
}

// Put stores sess; its ExpiresAt governs lifetime.
func (s *SessionStore) Put(_ context.Context, sess *domain.CSRFSession) error {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.sessions {
		if existing.Expired(now) {
			delete(s.sessions, id)
		}
	}
	s.sessions[sess.SessionID] = *sess
	return nil
}

// Get returns the live session or domain.ErrNotFound.
func (s *SessionStore) Get(_ context.Context, sessionID string) (*domain.CSRFSession, error) {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok || sess.Expired(s.now()) {
		return nil, fmt.Errorf("csrf session %q: %w", sessionID, domain.ErrNotFound)
	}
	return &sess, nil
}
