package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/keep/internal/httpserver/deps"
	"github.com/MrSnakeDoc/keep/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/keep/internal/httpserver/mw"
)

func init() { Register("auth", registerAuth) }

func registerAuth(r chi.Router, d deps.Deps) {
	limit := mw.RateLimit(mw.RateLimitConfig{
		Burst:        d.RateLimitBurst,
		RefillPerMin: d.RateLimitPerMinute,
		MaxEntries:   10000,
		TrustProxy:   d.TrustProxy,
	})

	r.Route("/auth", func(r chi.Router) {
		r.Use(mw.EnforceHost(d.AllowedHosts, d.Logger))
		r.Use(mw.Timeout(d.RequestTimeout))
		r.Use(limit)
		r.Post("/login", handlers.Login(d))
		r.Get("/callback", handlers.Callback(d))
		r.Post("/logout", handlers.Logout(d))
	})
}
