package sqlstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MrSnakeDoc/keep/internal/domain"
	"github.com/MrSnakeDoc/keep/internal/store/storetest"
)

func openSQLite(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "keep.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) domain.Store {
		return openSQLite(t)
	})
}

func TestPostgresContract(t *testing.T) {
	dsn := os.Getenv("KEEP_TEST_POSTGRES_URL")
	if dsn == "" {
		t.Skip("KEEP_TEST_POSTGRES_URL not set")
	}

	storetest.Run(t, func(t *testing.T) domain.Store {
		s, err := Open(context.Background(), "postgres", dsn)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		if _, err := s.db.Exec("DELETE FROM bookmarks"); err != nil {
			t.Fatalf("truncate error = %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), "oracle", "x"); err == nil {
		t.Error("Open(oracle) error = nil, want error")
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keep.db")
	ctx := context.Background()

	first, err := Open(ctx, "sqlite", path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := first.Create(ctx, "alice", domain.NewBookmark{URL: "https://example.com", Title: "Example"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	_ = first.Close()

	second, err := Open(ctx, "sqlite", path)
	if err != nil {
		t.Fatalf("second Open() error = %v", err)
	}
	defer func() { _ = second.Close() }()

	list, err := second.List(ctx, "alice")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 1 {
		t.Errorf("List() length = %v, want 1 after reopen", len(list))
	}
}

func TestCreatedAtRoundTrip(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()
	s.now = func() time.Time { return time.Date(2025, 3, 4, 5, 6, 7, 123456789, time.FixedZone("CET", 3600)) }

	created, err := s.Create(ctx, "alice", domain.NewBookmark{URL: "https://example.com", Title: "Example"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	list, err := s.List(ctx, "alice")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("List() length = %v, want 1", len(list))
	}
	if !list[0].CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", list[0].CreatedAt, created.CreatedAt)
	}
	if list[0].CreatedAt.Location() != time.UTC {
		t.Errorf("CreatedAt location = %v, want UTC", list[0].CreatedAt.Location())
	}
}

func TestRebind(t *testing.T) {
	tests := []struct {
		driver string
		query  string
		want   string
	}{
		{"sqlite", "DELETE FROM bookmarks WHERE id = ? AND owner_id = ?", "DELETE FROM bookmarks WHERE id = ? AND owner_id = ?"},
		{"postgres", "DELETE FROM bookmarks WHERE id = ? AND owner_id = ?", "DELETE FROM bookmarks WHERE id = $1 AND owner_id = $2"},
		{"postgres", "SELECT 1", "SELECT 1"},
	}

	for _, tt := range tests {
		d, err := lookupDialect(tt.driver)
		if err != nil {
			t.Fatalf("lookupDialect(%s) error = %v", tt.driver, err)
		}
		if got := d.rebind(tt.query); got != tt.want {
			t.Errorf("rebind(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
}
