package domain

import (
	"context"
	"errors"
)

// Store is the authorization-scoped bookmark table.
//
// Every method takes the owner as a mandatory argument that is part of the
// storage filter itself, so no caller can read or delete across identities.
type Store interface {
	// List returns the owner's bookmarks, newest first. Never nil.
	List(ctx context.Context, owner string) ([]Bookmark, error)

	// Create validates in, assigns ID and CreatedAt and persists the record.
	Create(ctx context.Context, owner string, in NewBookmark) (Bookmark, error)

	// Delete removes (id, owner) in one filtered operation.
	// deleted is false both when the id does not exist and when it belongs
	// to another owner.
	Delete(ctx context.Context, owner, id string) (deleted bool, err error)

	// Ping checks connectivity with the backend.
	Ping(ctx context.Context) error
}

// ErrOwnerRequired is returned by stores when called without an owner.
// Handlers always resolve an identity first, so this signals a programming error.
var ErrOwnerRequired = errors.New("owner identity is required")
