package mw

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// Timeout bounds the request context. A non-positive d disables it.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	if d <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.Timeout(d)
}
