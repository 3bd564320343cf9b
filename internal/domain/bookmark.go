package domain

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Bookmark is the only persisted entity.
//
// A Bookmark belongs to exactly one owner and is never shared.
// It is read-only after creation; the only mutation is deletion.
type Bookmark struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is a server-generated UUID, globally unique across owners.
	ID string `json:"id"`

	// OwnerID is the identity that created the bookmark.
	OwnerID string `json:"owner_id"`

	// ─────────────────────────────
	// Content
	// ─────────────────────────────

	// URL is an absolute http or https URL.
	URL string `json:"url"`

	// Title is the display label.
	Title string `json:"title"`

	// ─────────────────────────────
	// Metadata
	// ─────────────────────────────

	// CreatedAt is assigned by the server and is the only sort key (newest first).
	CreatedAt time.Time `json:"created_at"`
}

// NewBookmark is the client-supplied part of a bookmark.
type NewBookmark struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Normalize trims both fields.
func (n NewBookmark) Normalize() NewBookmark {
	return NewBookmark{
		URL:   strings.TrimSpace(n.URL),
		Title: strings.TrimSpace(n.Title),
	}
}

// Validate checks the trimmed input. It returns a *ValidationError.
func (n NewBookmark) Validate() error {
	n = n.Normalize()

	if n.URL == "" || n.Title == "" {
		field := "url"
		if n.URL != "" {
			field = "title"
		}
		return &ValidationError{Field: field, Message: MsgFieldsRequired}
	}

	if err := ValidateURL(n.URL); err != nil {
		return &ValidationError{Field: "url", Message: MsgInvalidURL, Err: err}
	}

	return nil
}

// ValidateURL requires an absolute URL with http or https scheme and a host.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

// TitleFromURL derives a fallback title from the URL host:
// "https://www.github.com/x" -> "Github.com".
// It returns "" when the URL cannot be parsed.
func TitleFromURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Hostname() == "" {
		return ""
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	if host == "" {
		return ""
	}
	return strings.ToUpper(host[:1]) + host[1:]
}

// SortNewestFirst orders bookmarks by CreatedAt descending.
// Ties are broken by ID so the order is stable across backends.
func SortNewestFirst(b []Bookmark) {
	sort.SliceStable(b, func(i, j int) bool {
		if b[i].CreatedAt.Equal(b[j].CreatedAt) {
			return b[i].ID > b[j].ID
		}
		return b[i].CreatedAt.After(b[j].CreatedAt)
	})
}
