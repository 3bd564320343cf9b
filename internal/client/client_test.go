package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
	"github.com/gorilla/websocket"

	"github.com/MrSnakeDoc/keep/internal/auth"
	"github.com/MrSnakeDoc/keep/internal/domain"
	"github.com/MrSnakeDoc/keep/internal/feed"
	"github.com/MrSnakeDoc/keep/internal/httpserver"
	"github.com/MrSnakeDoc/keep/internal/httpserver/deps"
	"github.com/MrSnakeDoc/keep/internal/logger"
	"github.com/MrSnakeDoc/keep/internal/service"
	"github.com/MrSnakeDoc/keep/internal/store/memory"
	"github.com/MrSnakeDoc/keep/internal/view"
)

const secret = "client-test-secret-0123456789abcdef"

type server struct {
	*httptest.Server
	hub    *feed.Hub
	signer *auth.Signer
}

func newServer(t *testing.T) *server {
	t.Helper()

	log := logger.NewNop()
	store := memory.NewStore()
	hub := feed.NewHub(16, log)
	sessions := auth.NewSessions(store, time.Hour)
	verifier := auth.NewTokenVerifier(secret, "", "")

	h := httpserver.NewRouter(deps.Deps{
		Logger:         log,
		StartTime:      time.Now(),
		RequestTimeout: 5 * time.Second,
		ImportMaxBytes: 1 << 20,
		StoreDriver:    "memory",
		Bookmarks:      service.NewBookmarks(store, hub, log),
		Resolver: auth.NewChain(log,
			auth.NewSessionResolver("keep_session", store),
			auth.NewBearerResolver(verifier),
		),
		Sessions:         sessions,
		OAuth:            auth.NewOAuth(auth.OAuthConfig{}, store, verifier, sessions),
		SessionCookie:    "keep_session",
		Feed:             hub,
		Subscribers:      hub.Count,
		FeedPingInterval: time.Second,
		FeedWriteTimeout: time.Second,
	})

	srv := &server{Server: httptest.NewServer(h), hub: hub, signer: auth.NewSigner(secret, "", "")}
	t.Cleanup(srv.Close)
	return srv
}

func (s *server) client(t *testing.T, user string) *Client {
	t.Helper()
	tok, err := s.signer.Sign(domain.Identity{ID: user}, time.Hour)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	c, err := New(s.URL, tok)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func has(v *view.View, id string) bool {
	for _, b := range v.Items() {
		if b.ID == id {
			return true
		}
	}
	return false
}

func TestNew(t *testing.T) {
	tests := []struct {
		base    string
		wantErr bool
	}{
		{"http://localhost:8080", false},
		{"https://keep.example/", false},
		{"ftp://keep.example", true},
		{"keep.example", true},
		{"http://[::1", true},
	}

	for _, tt := range tests {
		_, err := New(tt.base, "tok")
		if (err != nil) != tt.wantErr {
			t.Errorf("New(%q) error = %v, wantErr %v", tt.base, err, tt.wantErr)
		}
	}
}

func TestCRUD(t *testing.T) {
	srv := newServer(t)
	c := srv.client(t, "alice")
	ctx := context.Background()

	list, err := c.List(ctx)
	assert.Equal(t, err, nil)
	assert.Equal(t, len(list), 0)

	b, err := c.Create(ctx, domain.NewBookmark{URL: "https://example.com", Title: "Example"})
	assert.Equal(t, err, nil)
	assert.Equal(t, b.OwnerID, "alice")
	assert.NotEqual(t, b.ID, "")

	list, err = c.List(ctx)
	assert.Equal(t, err, nil)
	assert.Equal(t, len(list), 1)
	assert.Equal(t, list[0].ID, b.ID)

	assert.Equal(t, c.Delete(ctx, b.ID), nil)
	assert.Equal(t, c.Delete(ctx, b.ID), nil)

	list, err = c.List(ctx)
	assert.Equal(t, err, nil)
	assert.Equal(t, len(list), 0)
}

func TestAPIErrors(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()

	bad, err := New(srv.URL, "not-a-token")
	assert.Equal(t, err, nil)

	_, err = bad.List(ctx)
	var apiErr *APIError
	assert.Equal(t, errors.As(err, &apiErr), true)
	assert.Equal(t, apiErr.Status, http.StatusUnauthorized)
	assert.Equal(t, apiErr.Message, "Unauthorized")

	_, err = srv.client(t, "alice").Create(ctx, domain.NewBookmark{URL: "https://example.com"})
	assert.Equal(t, errors.As(err, &apiErr), true)
	assert.Equal(t, apiErr.Status, http.StatusBadRequest)
	assert.Equal(t, apiErr.Message, domain.MsgFieldsRequired)

	_, err = bad.Subscribe(ctx)
	assert.Equal(t, errors.As(err, &apiErr), true)
	assert.Equal(t, apiErr.Status, http.StatusUnauthorized)
}

func TestSubscribeReceivesOwnEvents(t *testing.T) {
	srv := newServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f, err := srv.client(t, "alice").Subscribe(ctx)
	assert.Equal(t, err, nil)
	defer func() { _ = f.Close() }()
	eventually(t, func() bool { return srv.hub.Count() == 1 })

	b, err := srv.client(t, "alice").Create(ctx, domain.NewBookmark{URL: "https://example.com", Title: "Example"})
	assert.Equal(t, err, nil)

	select {
	case ev := <-f.Events:
		assert.Equal(t, ev.Kind, domain.EventInsert)
		assert.Equal(t, ev.ID, b.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}

	_ = f.Close()
	for range f.Events {
	}
}

type recorder struct {
	mu    sync.Mutex
	calls int
	last  []domain.Bookmark
}

func (r *recorder) onChange(list []domain.Bookmark) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.last = list
}

func TestSessionReconcilesOtherSessions(t *testing.T) {
	srv := newServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A bookmark that exists before the session starts
	seed, err := srv.client(t, "alice").Create(ctx, domain.NewBookmark{URL: "https://seed.example", Title: "Seed"})
	assert.Equal(t, err, nil)

	rec := &recorder{}
	watcher := NewSession(srv.client(t, "alice"), logger.NewNop(), rec.onChange)
	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()

	select {
	case <-watcher.Ready():
	case err := <-done:
		t.Fatalf("Run() returned early: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("session never became ready")
	}
	assert.Equal(t, has(watcher.View(), seed.ID), true)

	other := NewSession(srv.client(t, "alice"), logger.NewNop(), nil)
	b, err := other.Create(ctx, domain.NewBookmark{URL: "https://example.com", Title: "Example"})
	assert.Equal(t, err, nil)
	assert.Equal(t, has(other.View(), b.ID), true)

	eventually(t, func() bool { return has(watcher.View(), b.ID) })
	items := watcher.View().Items()
	assert.Equal(t, len(items), 2)
	assert.Equal(t, items[0].ID, b.ID)

	// Bob's activity never reaches Alice's view
	_, err = srv.client(t, "bob").Create(ctx, domain.NewBookmark{URL: "https://bob.example", Title: "Bob"})
	assert.Equal(t, err, nil)

	assert.Equal(t, other.Delete(ctx, seed.ID), nil)
	eventually(t, func() bool { return !has(watcher.View(), seed.ID) })
	assert.Equal(t, watcher.View().Len(), 1)

	rec.mu.Lock()
	assert.Equal(t, len(rec.last), 1)
	rec.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not stop after cancel")
	}
}

func TestSessionCreateAppliesOnce(t *testing.T) {
	srv := newServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := NewSession(srv.client(t, "alice"), logger.NewNop(), nil)
	go func() { _ = s.Run(ctx) }()
	<-s.Ready()

	b, err := s.Create(ctx, domain.NewBookmark{URL: "https://example.com", Title: "Example"})
	assert.Equal(t, err, nil)

	// The feed echo of our own insert must not duplicate the row
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, s.View().Len(), 1)
	assert.Equal(t, s.View().Items()[0].ID, b.ID)

	assert.Equal(t, s.Delete(ctx, b.ID), nil)
	assert.Equal(t, s.View().Len(), 0)
}

// flakyFeed closes the first feed connection with 1013, like a server
// dropping a slow subscriber, and serves later ones normally.
type flakyFeed struct {
	dials atomic.Int32
	late  domain.Bookmark
}

func (f *flakyFeed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/bookmarks" {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[]"))
		return
	}

	conn, err := (&websocket.Upgrader{}).Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	if f.dials.Add(1) == 1 {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "subscriber too slow"),
			time.Now().Add(time.Second))
		return
	}

	_ = conn.WriteJSON(domain.InsertEvent(f.late))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func TestSessionReconnectsAfterFeedDrop(t *testing.T) {
	upstream := &flakyFeed{late: domain.Bookmark{ID: "late", OwnerID: "alice", URL: "https://late.example", Title: "Late", CreatedAt: time.Now()}}
	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, "tok")
	assert.Equal(t, err, nil)

	s := NewSession(c, logger.NewNop(), nil)
	s.minBackoff = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	eventually(t, func() bool { return upstream.dials.Load() >= 2 && has(s.View(), "late") })
	select {
	case err := <-done:
		t.Fatalf("Run() returned %v after a dropped feed, want it to keep running", err)
	default:
	}

	cancel()
	select {
	case err := <-done:
		assert.Equal(t, err, nil)
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not stop after cancel")
	}
}

func TestSessionStopsOnRejectedCredentials(t *testing.T) {
	srv := newServer(t)
	bad, err := New(srv.URL, "not-a-token")
	assert.Equal(t, err, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err = NewSession(bad, logger.NewNop(), nil).Run(ctx)
	var apiErr *APIError
	assert.Equal(t, errors.As(err, &apiErr), true)
	assert.Equal(t, apiErr.Status, http.StatusUnauthorized)
}
