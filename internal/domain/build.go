package domain

import (
	"time"

	"github.com/google/uuid"
)

// NewID returns a fresh bookmark id.
func NewID() string {
	return uuid.NewString()
}

// Build validates in and returns the record a store must persist.
// CreatedAt is UTC truncated to microseconds, the finest precision every
// backend keeps, so ordering is identical before and after a round trip.
func Build(owner string, in NewBookmark, id string, now time.Time) (Bookmark, error) {
	if owner == "" {
		return Bookmark{}, ErrOwnerRequired
	}
	if err := in.Validate(); err != nil {
		return Bookmark{}, err
	}
	in = in.Normalize()

	return Bookmark{
		ID:        id,
		OwnerID:   owner,
		URL:       in.URL,
		Title:     in.Title,
		CreatedAt: now.UTC().Truncate(time.Microsecond),
	}, nil
}
