package domain

import "context"

// Identity is the authenticated principal a request acts for.
type Identity struct {
	// ID is the provider subject. It becomes Bookmark.OwnerID.
	ID string `json:"id"`

	// Email is informational only (may be empty).
	Email string `json:"email,omitempty"`
}

type identityKey struct{}

// WithIdentity stores the resolved identity in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored by WithIdentity.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok && id.ID != ""
}
