package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/keep/internal/domain"
)

// SaveSession stores a session until its ExpiresAt
func (s *Store) SaveSession(ctx context.Context, session domain.Session) error {
	ttl := session.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.client.Set(ctx, SessionKey(session.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// GetSession retrieves a live session. It never extends or modifies it.
func (s *Store) GetSession(ctx context.Context, id string) (domain.Session, error) {
	if id == "" {
		return domain.Session{}, domain.ErrSessionNotFound
	}

	data, err := s.client.Get(ctx, SessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Session{}, domain.ErrSessionNotFound
		}
		return domain.Session{}, fmt.Errorf("failed to get session: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return domain.Session{}, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	session.ID = id

	// Redis TTL normally covers this, the check guards against clock skew
	if session.Expired(s.now()) {
		return domain.Session{}, domain.ErrSessionNotFound
	}

	return session, nil
}

// DeleteSession revokes a session. Unknown ids are not an error.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, SessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// SaveOAuthState remembers a login state value for ttl
func (s *Store) SaveOAuthState(ctx context.Context, state string, ttl time.Duration) error {
	ok, err := s.client.SetNX(ctx, OAuthStateKey(state), "1", ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to save oauth state: %w", err)
	}
	if !ok {
		return fmt.Errorf("oauth state collision")
	}
	return nil
}

// ConsumeOAuthState deletes state and reports whether it existed.
// A state can be consumed only once.
func (s *Store) ConsumeOAuthState(ctx context.Context, state string) (bool, error) {
	if state == "" {
		return false, nil
	}
	n, err := s.client.Del(ctx, OAuthStateKey(state)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to consume oauth state: %w", err)
	}
	return n == 1, nil
}
