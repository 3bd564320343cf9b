package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/keep/internal/domain"
)

// Verifier validates a bearer token with the identity provider.
type Verifier interface {
	Verify(ctx context.Context, token string) (domain.Identity, error)
}

// BearerResolver reads "Authorization: Bearer <token>".
type BearerResolver struct {
	verifier Verifier
}

var _ Resolver = (*BearerResolver)(nil)

// NewBearerResolver creates a resolver backed by verifier.
func NewBearerResolver(verifier Verifier) *BearerResolver {
	return &BearerResolver{verifier: verifier}
}

// Resolve verifies the bearer token. A missing or malformed header is
// ErrNoCredential, never a distinct parse error.
func (b *BearerResolver) Resolve(r *http.Request) (domain.Identity, error) {
	token, ok := BearerToken(r.Header.Get("Authorization"))
	if !ok {
		return domain.Identity{}, ErrNoCredential
	}
	return b.verifier.Verify(r.Context(), token)
}

// BearerToken extracts the token of a well formed "Bearer <token>" header.
// The scheme is case-insensitive.
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}
