package redisinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/go-video-intake/internal/domain"
	"github.com/redis/go-redis/v9"
)

// SubmissionStore suppresses duplicate submissions across instances.
// SET NX makes insert-if-absent atomic; PX provides the expiry sweep.
type SubmissionStore struct {
	client redis.UniversalClient
	prefix string
}

func NewSubmissionStore(client redis.UniversalClient, prefix string) *SubmissionStore {
	if prefix == "" {
		prefix = "recent"
	}
	return &SubmissionStore{client: client, prefix: prefix}
}

// Claim returns false when key is already recorded within its ttl.
func (s *SubmissionStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.prefix+":"+key, time.Now().UnixMilli(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: redis claim submission: %w", domain.ErrStoreUnavailable, err)
	}
	return ok, nil
}
