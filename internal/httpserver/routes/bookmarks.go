package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/keep/internal/httpserver/deps"
	"github.com/MrSnakeDoc/keep/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/keep/internal/httpserver/mw"
)

func init() { Register("bookmarks", registerBookmarks) }

func registerBookmarks(r chi.Router, d deps.Deps) {
	limit := mw.RateLimit(mw.RateLimitConfig{
		Burst:        d.RateLimitBurst,
		RefillPerMin: d.RateLimitPerMinute,
		MaxEntries:   10000,
		TrustProxy:   d.TrustProxy,
	})

	r.Group(func(r chi.Router) {
		r.Use(mw.EnforceHost(d.AllowedHosts, d.Logger))
		r.Use(mw.RequireIdentity(d.Resolver))

		// The websocket outlives any request timeout
		r.Get("/bookmarks/feed", handlers.Feed(d))

		r.Group(func(r chi.Router) {
			r.Use(mw.Timeout(d.RequestTimeout))
			r.Get("/bookmarks", handlers.ListBookmarks(d))
			r.With(limit).Post("/bookmarks", handlers.CreateBookmark(d))
			r.With(limit).Post("/bookmarks/import", handlers.ImportBookmarks(d))
			r.Delete("/bookmarks/{id}", handlers.DeleteBookmark(d))
		})
	})
}
