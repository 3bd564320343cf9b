package deps

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/keep/internal/auth"
	"github.com/MrSnakeDoc/keep/internal/feed"
	"github.com/MrSnakeDoc/keep/internal/logger"
	"github.com/MrSnakeDoc/keep/internal/service"
	"github.com/MrSnakeDoc/keep/internal/version"
)

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Build     version.Info
	TimeNow   func() time.Time // for testing, defaults to time.Now

	AllowedHosts   []string // Host headers allowed to access the API
	AllowedCIDRS   []string // IPs allowed to access healthz/readyz/infra endpoints
	AllowedOrigins []string // CORS and websocket origins for browser clients
	TrustProxy     bool     // true if running behind a trusted reverse proxy (e.g., cloudflared)
	PublicURL      string   // external base URL, derived from the request when empty

	RequestTimeout     time.Duration // per-request timeout for REST endpoints
	RateLimitBurst     int           // mutating endpoints, per owner (per IP on /auth)
	RateLimitPerMinute int
	ImportMaxBytes     int64

	StoreDriver string                // reported by /infra
	RedisClient redis.UniversalClient // nil when Redis is not used
	Bookmarks   *service.Bookmarks    // bookmark use cases (store + publish)

	Resolver      auth.Resolver // identity resolution chain
	Sessions      *auth.Sessions
	OAuth         *auth.OAuth
	SessionCookie string
	CookieSecure  bool

	Feed             feed.Broker
	Subscribers      func() int // live feed subscriptions on this node
	FeedPingInterval time.Duration
	FeedWriteTimeout time.Duration
}

// Now returns TimeNow() or time.Now().
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
