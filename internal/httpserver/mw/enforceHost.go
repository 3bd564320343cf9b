package mw

import (
	"net"
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/keep/internal/httpserver/respond"
	"github.com/MrSnakeDoc/keep/internal/logger"
)

// EnforceHost rejects requests whose Host is not listed. Patterns are exact
// names or "*.example.com" wildcards, compared without port and case.
// An empty list disables the check.
func EnforceHost(allowedHosts []string, log logger.Logger) func(http.Handler) http.Handler {
	patterns := make([]string, 0, len(allowedHosts))
	for _, h := range allowedHosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			patterns = append(patterns, h)
		}
	}
	if len(patterns) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	log = log.With(logger.String("mw", "enforce_host"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := hostname(r.Host)
			for _, p := range patterns {
				if matchHost(host, p) {
					next.ServeHTTP(w, r)
					return
				}
			}

			log.Warn("request for unknown host",
				logger.String("host", r.Host),
				logger.String("path", r.URL.Path),
			)
			respond.Error(w, http.StatusForbidden, http.StatusText(http.StatusForbidden))
		})
	}
}

func hostname(hostport string) string {
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		hostport = h
	}
	return strings.ToLower(strings.TrimSuffix(hostport, "."))
}

// matchHost reports whether host equals pattern or, for "*.example.com",
// is a strict subdomain of example.com.
func matchHost(host, pattern string) bool {
	if suffix, ok := strings.CutPrefix(pattern, "*"); ok {
		return strings.HasPrefix(suffix, ".") && len(host) > len(suffix) && strings.HasSuffix(host, suffix)
	}
	return host == pattern
}
