package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoClient is returned by Check when the client was never initialized.
var ErrNoClient = errors.New("redis client not initialized")

// Check pings the server with its own timeout.
func Check(ctx context.Context, client redis.UniversalClient, timeout time.Duration) error {
	if client == nil {
		return ErrNoClient
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return client.Ping(ctx).Err()
}
