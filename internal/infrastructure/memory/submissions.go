// Package memory holds process-local store backends. State is lost on restart
// and not shared between instances.
package memory

import (
	"context"
	"sync"
	"time"
)

// SubmissionStore remembers recent submission keys for duplicate suppression.
type SubmissionStore struct {
	mu      sync.Mutex
	records map[string]time.Time
	now     func() time.Time
}

// NewSubmissionStore returns an empty store. A nil now uses time.Now.
func NewSubmissionStore(now func() time.Time) *SubmissionStore {
	if now == nil {
		now = time.Now
	}
	return &SubmissionStore{records: make(map[string]time.Time), now: now}
}

// Claim sweeps records older than ttl, then records key unless it is still live.
// It returns false when key was submitted within ttl.
func (s *SubmissionStore) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, at := range s.records {
		if now.Sub(at) > ttl {
			delete(s.records, k)
		}
	}
	if _, exists := s.records[key]; exists {
		return false, nil
	}
	s.records[key] = now
	return true, nil
}

// Len returns the number of live records, for tests and diagnostics.
func (s *SubmissionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
