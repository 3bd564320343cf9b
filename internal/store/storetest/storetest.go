// Package storetest holds the behaviour every domain.Store backend must share.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/keep/internal/domain"
)

// Factory returns an empty store. It is called once per sub-test.
type Factory func(t *testing.T) domain.Store

// Run executes the shared contract against the backend built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s domain.Store)
	}{
		{"empty list is not nil", testEmptyList},
		{"create returns generated fields", testCreate},
		{"create then list puts newest first", testCreateThenList},
		{"lists are isolated per owner", testIsolation},
		{"delete removes and is idempotent", testDelete},
		{"foreign delete looks like missing id", testForeignDelete},
		{"invalid input creates nothing", testValidation},
		{"owner is mandatory", testOwnerRequired},
		{"concurrent deletes of one id", testConcurrentDelete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

func mustCreate(t *testing.T, s domain.Store, owner, url, title string) domain.Bookmark {
	t.Helper()
	b, err := s.Create(context.Background(), owner, domain.NewBookmark{URL: url, Title: title})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	// Keep creation timestamps strictly increasing
	time.Sleep(2 * time.Millisecond)
	return b
}

func mustList(t *testing.T, s domain.Store, owner string) []domain.Bookmark {
	t.Helper()
	list, err := s.List(context.Background(), owner)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	return list
}

func testEmptyList(t *testing.T, s domain.Store) {
	list := mustList(t, s, "nobody")
	if list == nil {
		t.Fatal("List() = nil, want empty slice")
	}
	if len(list) != 0 {
		t.Errorf("List() length = %v, want 0", len(list))
	}
}

func testCreate(t *testing.T, s domain.Store) {
	before := time.Now().Add(-time.Second)
	b := mustCreate(t, s, "alice", "  https://example.com  ", " Example ")

	if b.ID == "" {
		t.Error("Create() returned empty ID")
	}
	if b.OwnerID != "alice" {
		t.Errorf("OwnerID = %v, want alice", b.OwnerID)
	}
	if b.URL != "https://example.com" || b.Title != "Example" {
		t.Errorf("Create() content = %q/%q, want trimmed", b.URL, b.Title)
	}
	if b.CreatedAt.Before(before) || b.CreatedAt.After(time.Now().Add(time.Second)) {
		t.Errorf("CreatedAt = %v, want about now", b.CreatedAt)
	}

	other := mustCreate(t, s, "alice", "https://example.com", "Example")
	if other.ID == b.ID {
		t.Errorf("Create() reused id %v", b.ID)
	}
}

func testCreateThenList(t *testing.T, s domain.Store) {
	first := mustCreate(t, s, "alice", "https://one.example", "One")
	second := mustCreate(t, s, "alice", "https://two.example", "Two")
	third := mustCreate(t, s, "alice", "https://three.example", "Three")

	list := mustList(t, s, "alice")
	if len(list) != 3 {
		t.Fatalf("List() length = %v, want 3", len(list))
	}

	want := []string{third.ID, second.ID, first.ID}
	for i, id := range want {
		if list[i].ID != id {
			t.Errorf("List()[%d] = %v, want %v", i, list[i].ID, id)
		}
	}
	if !list[0].CreatedAt.Equal(third.CreatedAt) {
		t.Errorf("List()[0].CreatedAt = %v, want %v", list[0].CreatedAt, third.CreatedAt)
	}
}

func testIsolation(t *testing.T, s domain.Store) {
	mustCreate(t, s, "alice", "https://alice.example", "Alice")
	mustCreate(t, s, "bob", "https://bob.example", "Bob")
	mustCreate(t, s, "alice", "https://alice2.example", "Alice 2")

	for _, owner := range []string{"alice", "bob"} {
		for _, b := range mustList(t, s, owner) {
			if b.OwnerID != owner {
				t.Errorf("List(%s) returned bookmark owned by %s", owner, b.OwnerID)
			}
		}
	}

	if n := len(mustList(t, s, "alice")); n != 2 {
		t.Errorf("List(alice) length = %v, want 2", n)
	}
	if n := len(mustList(t, s, "bob")); n != 1 {
		t.Errorf("List(bob) length = %v, want 1", n)
	}
}

func testDelete(t *testing.T, s domain.Store) {
	ctx := context.Background()
	keep := mustCreate(t, s, "alice", "https://keep.example", "Keep")
	gone := mustCreate(t, s, "alice", "https://gone.example", "Gone")

	deleted, err := s.Delete(ctx, "alice", gone.ID)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if !deleted {
		t.Error("Delete() = false, want true for an owned bookmark")
	}

	list := mustList(t, s, "alice")
	if len(list) != 1 || list[0].ID != keep.ID {
		t.Errorf("List() after delete = %+v, want only %v", list, keep.ID)
	}

	deleted, err = s.Delete(ctx, "alice", gone.ID)
	if err != nil {
		t.Fatalf("second Delete() error = %v, want nil", err)
	}
	if deleted {
		t.Error("second Delete() = true, want false")
	}

	deleted, err = s.Delete(ctx, "alice", "does-not-exist")
	if err != nil || deleted {
		t.Errorf("Delete(missing) = %v, %v, want false, nil", deleted, err)
	}
}

func testForeignDelete(t *testing.T, s domain.Store) {
	ctx := context.Background()
	bobs := mustCreate(t, s, "bob", "https://bob.example", "Bob")

	foreign, foreignErr := s.Delete(ctx, "alice", bobs.ID)
	missing, missingErr := s.Delete(ctx, "alice", "00000000-0000-4000-8000-000000000000")

	if foreign != missing || (foreignErr == nil) != (missingErr == nil) {
		t.Errorf("foreign delete = (%v, %v), missing delete = (%v, %v), want identical",
			foreign, foreignErr, missing, missingErr)
	}
	if foreign {
		t.Error("Delete() removed another owner's bookmark")
	}

	list := mustList(t, s, "bob")
	if len(list) != 1 || list[0].ID != bobs.ID {
		t.Errorf("List(bob) = %+v, want bookmark untouched", list)
	}
}

func testValidation(t *testing.T, s domain.Store) {
	inputs := []domain.NewBookmark{
		{URL: "https://example.com", Title: ""},
		{URL: "https://example.com", Title: "   "},
		{URL: "", Title: "Example"},
		{URL: "example.com", Title: "Example"},
		{URL: "javascript:alert(1)", Title: "Example"},
	}

	for _, in := range inputs {
		_, err := s.Create(context.Background(), "alice", in)
		if !domain.IsValidation(err) {
			t.Errorf("Create(%+v) error = %v, want validation error", in, err)
		}
	}

	if n := len(mustList(t, s, "alice")); n != 0 {
		t.Errorf("List() length = %v, want 0 after rejected creates", n)
	}
}

func testOwnerRequired(t *testing.T, s domain.Store) {
	ctx := context.Background()
	if _, err := s.Create(ctx, "", domain.NewBookmark{URL: "https://example.com", Title: "x"}); err == nil {
		t.Error("Create() without owner error = nil")
	}
	if _, err := s.List(ctx, ""); err == nil {
		t.Error("List() without owner error = nil")
	}
	if _, err := s.Delete(ctx, "", "id"); err == nil {
		t.Error("Delete() without owner error = nil")
	}
}

func testConcurrentDelete(t *testing.T, s domain.Store) {
	b := mustCreate(t, s, "alice", "https://example.com", "Example")

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		removed int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			deleted, err := s.Delete(context.Background(), "alice", b.ID)
			if err != nil {
				t.Errorf("Delete() error = %v", err)
				return
			}
			if deleted {
				mu.Lock()
				removed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if removed != 1 {
		t.Errorf("concurrent deletes removed %d times, want exactly 1", removed)
	}
}
