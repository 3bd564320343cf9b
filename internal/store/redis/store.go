package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/keep/internal/domain"
)

// Store handles Redis operations for bookmarks, sessions and OAuth state
type Store struct {
	client redis.UniversalClient
	now    func() time.Time
	newID  func() string
}

var _ domain.Store = (*Store)(nil)

// NewStore creates a new Redis store
func NewStore(client redis.UniversalClient) *Store {
	return &Store{
		client: client,
		now:    time.Now,
		newID:  domain.NewID,
	}
}

// Ping checks the Redis connection
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
