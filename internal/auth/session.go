package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/keep/internal/domain"
)

// SessionStore persists server-side sessions.
type SessionStore interface {
	SaveSession(ctx context.Context, s domain.Session) error
	GetSession(ctx context.Context, id string) (domain.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

// SessionResolver resolves the identity behind the session cookie.
type SessionResolver struct {
	cookie string
	store  SessionStore
}

var _ Resolver = (*SessionResolver)(nil)

// NewSessionResolver reads cookie and looks it up in store.
func NewSessionResolver(cookie string, store SessionStore) *SessionResolver {
	return &SessionResolver{cookie: cookie, store: store}
}

// Resolve looks up the session. It never refreshes or extends it.
func (s *SessionResolver) Resolve(r *http.Request) (domain.Identity, error) {
	c, err := r.Cookie(s.cookie)
	if err != nil || c.Value == "" {
		return domain.Identity{}, ErrNoCredential
	}

	session, err := s.store.GetSession(r.Context(), c.Value)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return domain.Identity{}, fmt.Errorf("%w: unknown or expired session", ErrInvalidCredential)
		}
		return domain.Identity{}, err
	}

	return session.Identity, nil
}

// Sessions creates and revokes sessions.
type Sessions struct {
	store SessionStore
	ttl   time.Duration
	now   func() time.Time
}

// NewSessions creates a session manager issuing sessions valid for ttl.
func NewSessions(store SessionStore, ttl time.Duration) *Sessions {
	return &Sessions{store: store, ttl: ttl, now: time.Now}
}

// Create opens a session for id.
func (s *Sessions) Create(ctx context.Context, id domain.Identity) (domain.Session, error) {
	if id.ID == "" {
		return domain.Session{}, domain.ErrOwnerRequired
	}

	sid, err := RandomToken()
	if err != nil {
		return domain.Session{}, err
	}

	now := s.now().UTC()
	session := domain.Session{
		ID:        sid,
		Identity:  id,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.SaveSession(ctx, session); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

// Revoke deletes a session. Unknown ids are ignored.
func (s *Sessions) Revoke(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return s.store.DeleteSession(ctx, id)
}

// TTL returns the lifetime of new sessions.
func (s *Sessions) TTL() time.Duration { return s.ttl }

// RandomToken returns 32 random bytes, base64url encoded.
func RandomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
