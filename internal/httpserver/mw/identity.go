package mw

import (
	"net/http"

	"github.com/MrSnakeDoc/keep/internal/auth"
	"github.com/MrSnakeDoc/keep/internal/domain"
	"github.com/MrSnakeDoc/keep/internal/httpserver/respond"
)

// RequireIdentity resolves the caller and stores it in the request context.
// Every failure is the same 401, whatever strategy failed.
func RequireIdentity(resolver auth.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := resolver.Resolve(r)
			if err != nil || id.ID == "" {
				respond.Unauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(domain.WithIdentity(r.Context(), id)))
		})
	}
}
