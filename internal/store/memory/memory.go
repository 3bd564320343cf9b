// Package memory provides an in-process domain.Store.
// It backs the "memory" driver and the HTTP tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/keep/internal/domain"
)

// Store keeps bookmarks in per-owner maps, so lookups never cross owners.
type Store struct {
	mu        sync.RWMutex
	bookmarks map[string]map[string]domain.Bookmark // owner -> ID -> Bookmark
	sessions  map[string]domain.Session             // session ID -> Session
	states    map[string]time.Time                  // OAuth state -> expiry
	now       func() time.Time
	newID     func() string
}

var _ domain.Store = (*Store)(nil)

// NewStore creates an empty memory store
func NewStore() *Store {
	return &Store{
		bookmarks: make(map[string]map[string]domain.Bookmark),
		sessions:  make(map[string]domain.Session),
		states:    make(map[string]time.Time),
		now:       time.Now,
		newID:     domain.NewID,
	}
}

// ─────────────────────────────────────────────────────────────────
// Bookmark methods
// ─────────────────────────────────────────────────────────────────

// Create stores a new bookmark for owner
func (s *Store) Create(_ context.Context, owner string, in domain.NewBookmark) (domain.Bookmark, error) {
	b, err := domain.Build(owner, in, s.newID(), s.now())
	if err != nil {
		return domain.Bookmark{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	owned, ok := s.bookmarks[owner]
	if !ok {
		owned = make(map[string]domain.Bookmark)
		s.bookmarks[owner] = owned
	}
	owned[b.ID] = b
	return b, nil
}

// List returns the owner's bookmarks, newest first
func (s *Store) List(_ context.Context, owner string) ([]domain.Bookmark, error) {
	if owner == "" {
		return nil, domain.ErrOwnerRequired
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	owned := s.bookmarks[owner]
	bookmarks := make([]domain.Bookmark, 0, len(owned))
	for _, b := range owned {
		bookmarks = append(bookmarks, b)
	}
	domain.SortNewestFirst(bookmarks)
	return bookmarks, nil
}

// Delete removes id from the owner's map only
func (s *Store) Delete(_ context.Context, owner, id string) (bool, error) {
	if owner == "" {
		return false, domain.ErrOwnerRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	owned := s.bookmarks[owner]
	if _, ok := owned[id]; !ok {
		return false, nil
	}
	delete(owned, id)
	if len(owned) == 0 {
		delete(s.bookmarks, owner)
	}
	return true, nil
}

// Ping always succeeds
func (s *Store) Ping(context.Context) error { return nil }

// ─────────────────────────────────────────────────────────────────
// Session methods
// ─────────────────────────────────────────────────────────────────

// SaveSession stores a session until its ExpiresAt
func (s *Store) SaveSession(_ context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.ID] = session
	return nil
}

// GetSession returns a live session
func (s *Store) GetSession(_ context.Context, id string) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok || session.Expired(s.now()) {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return session, nil
}

// DeleteSession revokes a session
func (s *Store) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

// SaveOAuthState remembers a login state value for ttl
func (s *Store) SaveOAuthState(_ context.Context, state string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[state] = s.now().Add(ttl)
	return nil
}

// ConsumeOAuthState deletes state and reports whether it was live
func (s *Store) ConsumeOAuthState(_ context.Context, state string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expires, ok := s.states[state]
	if !ok {
		return false, nil
	}
	delete(s.states, state)
	return s.now().Before(expires), nil
}
