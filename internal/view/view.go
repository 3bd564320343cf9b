// Package view keeps a client's ordered list of bookmarks in sync with the
// change feed.
//
// The reducer is idempotent by id: an insert for a known id and a delete for
// an unknown id are ignored, so the same record arriving from both the API
// response and the feed is applied once.
package view

import (
	"sort"
	"sync"

	"github.com/MrSnakeDoc/keep/internal/domain"
)

// maxTombstones caps the deleted ids remembered between two snapshots.
const maxTombstones = 1024

// View is safe for concurrent use.
type View struct {
	mu         sync.RWMutex
	items      []domain.Bookmark // newest first
	index      map[string]struct{}
	tombstones map[string]struct{}
	buried     []string // tombstone ids, oldest first
}

// New returns an empty view.
func New() *View {
	return &View{
		items:      make([]domain.Bookmark, 0),
		index:      make(map[string]struct{}),
		tombstones: make(map[string]struct{}),
	}
}

// Reset replaces the contents with a snapshot. Ids already deleted through
// the feed are left out. Only the tombstones that filtered a row survive:
// the others name ids the server no longer has.
func (v *View) Reset(list []domain.Bookmark) {
	v.mu.Lock()
	defer v.mu.Unlock()

	hit := make(map[string]struct{})
	v.items = make([]domain.Bookmark, 0, len(list))
	v.index = make(map[string]struct{}, len(list))
	for _, b := range list {
		if _, gone := v.tombstones[b.ID]; gone {
			hit[b.ID] = struct{}{}
			continue
		}
		if _, dup := v.index[b.ID]; dup {
			continue
		}
		v.index[b.ID] = struct{}{}
		v.items = append(v.items, b)
	}
	domain.SortNewestFirst(v.items)

	kept := v.buried[:0]
	for _, id := range v.buried {
		if _, ok := hit[id]; ok {
			kept = append(kept, id)
		} else {
			delete(v.tombstones, id)
		}
	}
	v.buried = kept
}

// Apply reduces one feed event. It reports whether the list changed.
func (v *View) Apply(ev domain.Event) bool {
	switch ev.Kind {
	case domain.EventInsert:
		if ev.Record == nil {
			return false
		}
		return v.insert(*ev.Record)
	case domain.EventDelete:
		return v.remove(ev.ID)
	default:
		return false
	}
}

// ApplyCreated merges the record returned by the create call.
func (v *View) ApplyCreated(b domain.Bookmark) bool {
	return v.insert(b)
}

// Items returns a copy of the list, newest first.
func (v *View) Items() []domain.Bookmark {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make([]domain.Bookmark, len(v.items))
	copy(out, v.items)
	return out
}

// Len returns the number of bookmarks.
func (v *View) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.items)
}

func (v *View) insert(b domain.Bookmark) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.index[b.ID]; ok {
		return false
	}
	// Ids are never reused, an insert after its delete is stale
	if _, gone := v.tombstones[b.ID]; gone {
		return false
	}

	// First position that sorts after b
	i := sort.Search(len(v.items), func(i int) bool {
		it := v.items[i]
		if it.CreatedAt.Equal(b.CreatedAt) {
			return it.ID < b.ID
		}
		return it.CreatedAt.Before(b.CreatedAt)
	})

	v.items = append(v.items, domain.Bookmark{})
	copy(v.items[i+1:], v.items[i:])
	v.items[i] = b
	v.index[b.ID] = struct{}{}
	return true
}

func (v *View) remove(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.bury(id)
	if _, ok := v.index[id]; !ok {
		return false
	}

	for i, it := range v.items {
		if it.ID == id {
			v.items = append(v.items[:i], v.items[i+1:]...)
			break
		}
	}
	delete(v.index, id)
	return true
}

func (v *View) bury(id string) {
	if _, ok := v.tombstones[id]; ok {
		return
	}
	v.tombstones[id] = struct{}{}
	v.buried = append(v.buried, id)
	if len(v.buried) > maxTombstones {
		delete(v.tombstones, v.buried[0])
		v.buried = v.buried[1:]
	}
}
