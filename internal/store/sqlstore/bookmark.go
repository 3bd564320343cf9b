package sqlstore

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/keep/internal/domain"
)

// Create stores a new bookmark for owner
func (s *Store) Create(ctx context.Context, owner string, in domain.NewBookmark) (domain.Bookmark, error) {
	b, err := domain.Build(owner, in, s.newID(), s.now())
	if err != nil {
		return domain.Bookmark{}, err
	}

	_, err = s.db.ExecContext(ctx, s.dialect.rebind(
		"INSERT INTO bookmarks (id, owner_id, url, title, created_at) VALUES (?, ?, ?, ?, ?)"),
		b.ID, b.OwnerID, b.URL, b.Title, b.CreatedAt,
	)
	if err != nil {
		return domain.Bookmark{}, fmt.Errorf("failed to add bookmark: %w", err)
	}

	return b, nil
}

// List retrieves all bookmarks of owner, newest first
func (s *Store) List(ctx context.Context, owner string) ([]domain.Bookmark, error) {
	if owner == "" {
		return nil, domain.ErrOwnerRequired
	}

	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(
		"SELECT id, owner_id, url, title, created_at FROM bookmarks WHERE owner_id = ? ORDER BY created_at DESC, id DESC"),
		owner,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	bookmarks := []domain.Bookmark{}
	for rows.Next() {
		var b domain.Bookmark
		if err := rows.Scan(&b.ID, &b.OwnerID, &b.URL, &b.Title, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bookmark: %w", err)
		}
		b.CreatedAt = b.CreatedAt.UTC()
		bookmarks = append(bookmarks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookmarks: %w", err)
	}

	return bookmarks, nil
}

// Delete removes the bookmark id if, and only if, it belongs to owner.
// Both columns are part of the same statement so the check cannot race.
func (s *Store) Delete(ctx context.Context, owner, id string) (bool, error) {
	if owner == "" {
		return false, domain.ErrOwnerRequired
	}
	if id == "" {
		return false, nil
	}

	res, err := s.db.ExecContext(ctx, s.dialect.rebind(
		"DELETE FROM bookmarks WHERE id = ? AND owner_id = ?"),
		id, owner,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete bookmark: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n == 1, nil
}
