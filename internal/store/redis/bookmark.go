package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/keep/internal/domain"
)

// deleteScript removes a bookmark only if it is a member of the caller's own
// index. KEYS[1] = owner index, KEYS[2] = record key, ARGV[1] = id.
// Both keys share the owner hash tag.
var deleteScript = redis.NewScript(`
if redis.call('ZREM', KEYS[1], ARGV[1]) == 1 then
	redis.call('DEL', KEYS[2])
	return 1
end
return 0
`)

// Create stores a new bookmark for owner
func (s *Store) Create(ctx context.Context, owner string, in domain.NewBookmark) (domain.Bookmark, error) {
	bookmark, err := domain.Build(owner, in, s.newID(), s.now())
	if err != nil {
		return domain.Bookmark{}, err
	}

	data, err := json.Marshal(bookmark)
	if err != nil {
		return domain.Bookmark{}, fmt.Errorf("failed to marshal bookmark: %w", err)
	}

	// Record and index are written atomically
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, BookmarkKey(owner, bookmark.ID), data, 0)
		pipe.ZAdd(ctx, OwnerBookmarksKey(owner), redis.Z{
			Score:  float64(bookmark.CreatedAt.UnixMicro()),
			Member: bookmark.ID,
		})
		return nil
	})
	if err != nil {
		return domain.Bookmark{}, fmt.Errorf("failed to save bookmark: %w", err)
	}

	return bookmark, nil
}

// List retrieves all bookmarks of owner, newest first
func (s *Store) List(ctx context.Context, owner string) ([]domain.Bookmark, error) {
	if owner == "" {
		return nil, domain.ErrOwnerRequired
	}

	ids, err := s.client.ZRevRange(ctx, OwnerBookmarksKey(owner), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get bookmark IDs: %w", err)
	}

	if len(ids) == 0 {
		return []domain.Bookmark{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = BookmarkKey(owner, id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get bookmarks: %w", err)
	}

	bookmarks := make([]domain.Bookmark, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Record vanished between ZREVRANGE and MGET (concurrent delete),
			// or the id belongs to another owner's key space
			continue
		}

		var bookmark domain.Bookmark
		if err := json.Unmarshal([]byte(raw), &bookmark); err != nil {
			return nil, fmt.Errorf("failed to unmarshal bookmark %s: %w", ids[i], err)
		}

		// The index is per owner, the record check keeps reads scoped even
		// if an index were ever corrupted
		if bookmark.OwnerID != owner {
			continue
		}
		bookmarks = append(bookmarks, bookmark)
	}

	domain.SortNewestFirst(bookmarks)
	return bookmarks, nil
}

// Delete removes the bookmark id if, and only if, it belongs to owner
func (s *Store) Delete(ctx context.Context, owner, id string) (bool, error) {
	if owner == "" {
		return false, domain.ErrOwnerRequired
	}
	if id == "" {
		return false, nil
	}

	n, err := deleteScript.Run(ctx, s.client, []string{OwnerBookmarksKey(owner), BookmarkKey(owner, id)}, id).Int()
	if err != nil {
		return false, fmt.Errorf("failed to delete bookmark: %w", err)
	}

	return n == 1, nil
}
