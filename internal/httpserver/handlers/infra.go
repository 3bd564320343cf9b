package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/keep/internal/httpserver/deps"
	"github.com/MrSnakeDoc/keep/internal/httpserver/respond"
	redisx "github.com/MrSnakeDoc/keep/internal/redis"
)

type componentStatus struct {
	OK          bool   `json:"ok"`
	Driver      string `json:"driver,omitempty"`
	Subscribers *int   `json:"subscribers,omitempty"`
	Impact      string `json:"impact,omitempty"`
	Error       string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports component status and live feed subscriptions.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentStatus{
			"store": checkStore(r, d),
			"feed":  checkFeed(d),
		}
		if d.RedisClient != nil {
			components["redis"] = checkRedis(r, d)
		}

		respond.JSON(w, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

func determineMode(components map[string]componentStatus) string {
	// No store = nothing works
	if store, exists := components["store"]; exists && !store.OK {
		return "critical"
	}

	// Redis down = sessions and live updates unavailable
	if redis, exists := components["redis"]; exists && !redis.OK {
		return "degraded"
	}

	return "operational"
}

func checkStore(r *http.Request, d deps.Deps) componentStatus {
	if err := pingStore(r.Context(), d); err != nil {
		return componentStatus{OK: false, Driver: d.StoreDriver, Impact: "bookmarks-unavailable", Error: "unreachable"}
	}
	return componentStatus{OK: true, Driver: d.StoreDriver}
}

func checkRedis(r *http.Request, d deps.Deps) componentStatus {
	if err := redisx.Check(r.Context(), d.RedisClient, checkTimeout); err != nil {
		return componentStatus{OK: false, Impact: "sessions-and-live-updates-disabled", Error: "timeout"}
	}
	return componentStatus{OK: true}
}

func checkFeed(d deps.Deps) componentStatus {
	n := 0
	if d.Subscribers != nil {
		n = d.Subscribers()
	}
	return componentStatus{OK: d.Feed != nil, Subscribers: &n}
}
