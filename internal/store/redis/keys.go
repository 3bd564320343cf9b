package redis

const (
	// KeyPrefix is shared by every bookmark key. An owner's record and index
	// keys carry the owner as a hash tag so they land in the same cluster slot.
	KeyPrefix = "keep:"
	// KeyPrefixSession is the prefix for server-side sessions
	KeyPrefixSession = "keep:session:"
	// KeyPrefixOAuthState is the prefix for one-time OAuth state values
	KeyPrefixOAuthState = "keep:oauth:state:"
)

func ownerSlot(owner string) string {
	return KeyPrefix + "{" + owner + "}:"
}

// BookmarkKey returns the Redis key holding a bookmark record (JSON)
func BookmarkKey(owner, id string) string {
	return ownerSlot(owner) + "bookmark:" + id
}

// OwnerBookmarksKey returns the sorted set of an owner's bookmark ids,
// scored by creation time in microseconds
func OwnerBookmarksKey(owner string) string {
	return ownerSlot(owner) + "bookmarks"
}

// SessionKey returns the Redis key for a session id
func SessionKey(id string) string {
	return KeyPrefixSession + id
}

// OAuthStateKey returns the Redis key for an OAuth state value
func OAuthStateKey(state string) string {
	return KeyPrefixOAuthState + state
}
