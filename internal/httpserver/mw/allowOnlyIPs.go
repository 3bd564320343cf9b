package mw

import (
	"net/http"

	"github.com/MrSnakeDoc/keep/internal/httpserver/respond"
	"github.com/MrSnakeDoc/keep/internal/logger"
	"github.com/MrSnakeDoc/keep/internal/utils"
)

// AllowOnlyCIDRS restricts the wrapped routes to the listed IPs and CIDRs.
// An empty list disables the filter. Set trustProxy only behind a trusted
// reverse proxy or tunnel.
func AllowOnlyCIDRS(allowed []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	m := utils.NewIPMatcher(allowed)
	if m.IsEmpty() {
		log.Debug("ip filter disabled, no valid rule")
		return func(next http.Handler) http.Handler { return next }
	}

	log = log.With(logger.String("mw", "allow_cidrs"))
	log.Debug("ip filter enabled", logger.Int("rules", len(allowed)))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r, trustProxy)
			if !m.Allow(ip) {
				log.Warn("request from outside allowed ranges",
					logger.String("ip", ip),
					logger.String("remote_addr", r.RemoteAddr),
					logger.String("path", r.URL.Path),
				)
				respond.Error(w, http.StatusForbidden, http.StatusText(http.StatusForbidden))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
