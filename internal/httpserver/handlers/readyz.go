package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/keep/internal/httpserver/deps"
	"github.com/MrSnakeDoc/keep/internal/httpserver/respond"
	redisx "github.com/MrSnakeDoc/keep/internal/redis"
)

const checkTimeout = 2 * time.Second

type readyzResponse struct {
	Ready  bool              `json:"ready"`
	Checks map[string]string `json:"checks"`
}

// Readyz reports whether the store and Redis answer. 503 otherwise.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{}
		ready := true

		if err := pingStore(r.Context(), d); err != nil {
			checks["store"] = "unavailable"
			ready = false
		} else {
			checks["store"] = "ok"
		}

		if d.RedisClient != nil {
			if err := redisx.Check(r.Context(), d.RedisClient, checkTimeout); err != nil {
				checks["redis"] = "unavailable"
				ready = false
			} else {
				checks["redis"] = "ok"
			}
		}

		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(w, status, readyzResponse{Ready: ready, Checks: checks})
	}
}

func pingStore(ctx context.Context, d deps.Deps) error {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	return d.Bookmarks.Ping(ctx)
}
