package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers accepted by KEEP_STORE_DRIVER.
const (
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request timeout for the REST endpoints
	PublicURL       string        // optional, ex: https://keep.domain.ext (OAuth redirect base)

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Storage
	StoreDriver string // redis | postgres | sqlite | memory
	DatabaseURL string // postgres DSN or sqlite path (sql drivers only)

	// Identity
	JWTSecret     string        // HS256 secret shared with the identity provider
	JWTIssuer     string        // optional, expected "iss"
	JWTAudience   string        // optional, expected "aud" (ex: "authenticated")
	SessionCookie string        // session cookie name
	SessionTTL    time.Duration // server-side session lifetime
	CookieSecure  bool          // Secure flag on the session cookie

	// Delegated OAuth login (optional, empty client id = login disabled)
	OAuthClientID     string
	OAuthClientSecret string
	OAuthAuthURL      string
	OAuthTokenURL     string
	OAuthScopes       []string

	// Change feed
	FeedBuffer       int           // per-subscriber event buffer
	FeedPingInterval time.Duration // websocket ping period
	FeedWriteTimeout time.Duration // websocket write deadline

	// Import
	ImportMaxBytes int64 // max accepted YAML import body

	// Rate limiting (mutating endpoints), burst 0 disables it
	RateLimitBurst     int
	RateLimitPerMinute int

	// Periodic Homepage file sync (optional, empty file = disabled)
	SyncFile     string        // path to a Homepage bookmarks.yaml or services.yaml
	SyncFormat   string        // bookmarks | services
	SyncOwner    string        // identity the synced bookmarks belong to
	SyncInterval time.Duration // ex: 5m

	// Redis
	RedisAddr             string        // ex: "localhost:6379", comma separated for a cluster
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	AllowedHosts   []string // optional, restrict access to specific Host headers
	AllowedCIDRS   []string // optional, restrict ops endpoints to specific IPs (e.g. "1.2.3.4, 10.0.0.0/8")
	AllowedOrigins []string // optional, CORS origins for browser clients
	TrustProxy     bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("KEEP_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("KEEP_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("KEEP_REQUEST_TIMEOUT", 5*time.Second),
		PublicURL:       strings.TrimRight(getenv("KEEP_PUBLIC_URL", ""), "/"),

		// Logging
		LogLevel:  getenv("KEEP_LOG_LEVEL", "info"),
		PrettyLog: mustBool("KEEP_PRETTY_LOG", true),

		// Storage
		StoreDriver: strings.ToLower(getenv("KEEP_STORE_DRIVER", DriverRedis)),
		DatabaseURL: getenv("KEEP_DATABASE_URL", ""),

		// Identity
		JWTSecret:     requireEnv("KEEP_JWT_SECRET"),
		JWTIssuer:     getenv("KEEP_JWT_ISSUER", ""),
		JWTAudience:   getenv("KEEP_JWT_AUDIENCE", ""),
		SessionCookie: getenv("KEEP_SESSION_COOKIE", "keep_session"),
		SessionTTL:    mustDuration("KEEP_SESSION_TTL", 7*24*time.Hour),
		CookieSecure:  mustBool("KEEP_COOKIE_SECURE", true),

		// OAuth
		OAuthClientID:     getenv("KEEP_OAUTH_CLIENT_ID", ""),
		OAuthClientSecret: getenv("KEEP_OAUTH_CLIENT_SECRET", ""),
		OAuthAuthURL:      getenv("KEEP_OAUTH_AUTH_URL", ""),
		OAuthTokenURL:     getenv("KEEP_OAUTH_TOKEN_URL", ""),
		OAuthScopes:       splitAndTrim(getenv("KEEP_OAUTH_SCOPES", "openid,email,profile")),

		// Change feed
		FeedBuffer:       getenvInt("KEEP_FEED_BUFFER", 64),
		FeedPingInterval: mustDuration("KEEP_FEED_PING_INTERVAL", 30*time.Second),
		FeedWriteTimeout: mustDuration("KEEP_FEED_WRITE_TIMEOUT", 10*time.Second),

		ImportMaxBytes: int64(getenvInt("KEEP_IMPORT_MAX_BYTES", 1<<20)),

		RateLimitBurst:     getenvInt("KEEP_RATE_LIMIT_BURST", 30),
		RateLimitPerMinute: getenvInt("KEEP_RATE_LIMIT_PER_MINUTE", 60),

		// File sync
		SyncFile:     getenv("KEEP_SYNC_FILE", ""),
		SyncFormat:   getenv("KEEP_SYNC_FORMAT", "bookmarks"),
		SyncOwner:    getenv("KEEP_SYNC_OWNER", ""),
		SyncInterval: mustDuration("KEEP_SYNC_INTERVAL", 5*time.Minute),

		// Redis settings
		RedisAddr:             requireEnv("KEEP_REDIS_ADDR"),
		RedisUser:             getenv("KEEP_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("KEEP_REDIS_PASSWORD_REQUIRED", true),
		RedisPassword:         getenv("KEEP_REDIS_PASSWORD", ""),
		RedisDB:               requireEnvInt("KEEP_REDIS_DB"),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts:   splitAndTrim(getenv("KEEP_ALLOWED_HOSTS", "")),
		AllowedCIDRS:   parseAllowedIPs(getenv("KEEP_ALLOWED_CIDRS", "")),
		AllowedOrigins: splitAndTrim(getenv("KEEP_ALLOWED_ORIGINS", "")),
		TrustProxy:     mustBool("KEEP_TRUST_PROXY", false),
	}

	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("❌ FATAL: %v", err))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// Validate checks cross-field constraints that single getters cannot.
func (c *Config) Validate() error {
	if c.RedisPasswordRequired && c.RedisPassword == "" {
		return fmt.Errorf("KEEP_REDIS_PASSWORD is required when KEEP_REDIS_PASSWORD_REQUIRED=true")
	}

	switch c.StoreDriver {
	case DriverRedis, DriverMemory:
	case DriverPostgres, DriverSQLite:
		if c.DatabaseURL == "" {
			return fmt.Errorf("KEEP_DATABASE_URL is required when KEEP_STORE_DRIVER=%s", c.StoreDriver)
		}
	default:
		return fmt.Errorf("unknown KEEP_STORE_DRIVER %q", c.StoreDriver)
	}

	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("KEEP_JWT_SECRET must be at least 32 bytes")
	}

	if c.OAuthClientID != "" && (c.OAuthAuthURL == "" || c.OAuthTokenURL == "") {
		return fmt.Errorf("KEEP_OAUTH_AUTH_URL and KEEP_OAUTH_TOKEN_URL are required when KEEP_OAUTH_CLIENT_ID is set")
	}

	if c.SyncFile != "" {
		if c.SyncOwner == "" {
			return fmt.Errorf("KEEP_SYNC_OWNER is required when KEEP_SYNC_FILE is set")
		}
		if c.SyncFormat != "bookmarks" && c.SyncFormat != "services" {
			return fmt.Errorf("KEEP_SYNC_FORMAT must be bookmarks or services, got %q", c.SyncFormat)
		}
		if c.SyncInterval <= 0 {
			return fmt.Errorf("KEEP_SYNC_INTERVAL must be positive, got %s", c.SyncInterval)
		}
	}

	if c.FeedBuffer < 1 {
		return fmt.Errorf("KEEP_FEED_BUFFER must be >= 1, got %d", c.FeedBuffer)
	}

	return nil
}

// OAuthEnabled reports whether delegated login is configured.
func (c *Config) OAuthEnabled() bool {
	return c.OAuthClientID != ""
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	cp := *c
	cp.RedisPassword = "***REDACTED***"
	if c.RedisUser != "" {
		cp.RedisUser = "***REDACTED***"
	}
	cp.JWTSecret = "***REDACTED***"
	if c.OAuthClientSecret != "" {
		cp.OAuthClientSecret = "***REDACTED***"
	}
	if c.DatabaseURL != "" {
		cp.DatabaseURL = "***REDACTED***"
	}
	return cp
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func requireEnvInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid integer value for %s: %s", key, v))
	}
	return i
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
