package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/keep/internal/auth"
	"github.com/MrSnakeDoc/keep/internal/config"
	"github.com/MrSnakeDoc/keep/internal/domain"
	"github.com/MrSnakeDoc/keep/internal/feed"
	"github.com/MrSnakeDoc/keep/internal/httpserver"
	"github.com/MrSnakeDoc/keep/internal/httpserver/deps"
	"github.com/MrSnakeDoc/keep/internal/logger"
	"github.com/MrSnakeDoc/keep/internal/redis"
	"github.com/MrSnakeDoc/keep/internal/scheduler"
	"github.com/MrSnakeDoc/keep/internal/service"
	"github.com/MrSnakeDoc/keep/internal/sources/homepage"
	"github.com/MrSnakeDoc/keep/internal/store/memory"
	redisstore "github.com/MrSnakeDoc/keep/internal/store/redis"
	"github.com/MrSnakeDoc/keep/internal/store/sqlstore"
	"github.com/MrSnakeDoc/keep/internal/utils"
	"github.com/MrSnakeDoc/keep/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient goredis.UniversalClient
	broker      *feed.RedisBroker
	fileSync    *scheduler.FileSync
	closers     []io.Closer
}

// New connects every backend and assembles the HTTP server.
// Redis is mandatory: it carries sessions and the change feed whatever the
// bookmark store driver is.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	log.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	redisClient, err := redis.New(ctx, redis.ConnectOptions{
		Addrs:          redis.ParseAddrs(cfg.RedisAddr),
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		RedisDB:        cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Info("Redis initialized successfully")

	a := &App{cfg: cfg, logger: log, redisClient: redisClient}
	a.closers = append(a.closers, redisClient)

	redisStore := redisstore.NewStore(redisClient)
	store, err := a.openStore(ctx, redisStore)
	if err != nil {
		a.close()
		return nil, err
	}
	log.Info("bookmark store ready", logger.String("driver", cfg.StoreDriver))

	hub := feed.NewHub(cfg.FeedBuffer, log)
	a.broker = feed.NewRedisBroker(redisClient, hub, log)

	verifier := auth.NewTokenVerifier(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience)
	sessions := auth.NewSessions(redisStore, cfg.SessionTTL)
	resolver := auth.NewChain(log,
		auth.NewSessionResolver(cfg.SessionCookie, redisStore),
		auth.NewBearerResolver(verifier),
	)
	oauth := auth.NewOAuth(auth.OAuthConfig{
		ClientID:     cfg.OAuthClientID,
		ClientSecret: cfg.OAuthClientSecret,
		AuthURL:      cfg.OAuthAuthURL,
		TokenURL:     cfg.OAuthTokenURL,
		Scopes:       cfg.OAuthScopes,
	}, redisStore, verifier, sessions)
	if !oauth.Enabled() {
		log.Info("oauth provider not configured, login disabled (bearer tokens only)")
	}

	bookmarks := service.NewBookmarks(store, a.broker, log)

	if cfg.SyncFile != "" {
		format, err := homepage.ParseFormat(cfg.SyncFormat)
		if err != nil {
			a.close()
			return nil, err
		}
		log.Info("sync file configured, initializing file sync",
			logger.String("file", cfg.SyncFile), logger.String("owner_id", cfg.SyncOwner))
		a.fileSync = scheduler.NewFileSync(cfg.SyncFile, format, cfg.SyncOwner, bookmarks, log, cfg.SyncInterval)
	}

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:             log,
		StartTime:          time.Now(),
		Build:              version.Get(),
		TimeNow:            time.Now,
		AllowedHosts:       cfg.AllowedHosts,
		AllowedCIDRS:       cfg.AllowedCIDRS,
		AllowedOrigins:     cfg.AllowedOrigins,
		TrustProxy:         cfg.TrustProxy,
		PublicURL:          cfg.PublicURL,
		RequestTimeout:     cfg.RequestTimeout,
		RateLimitBurst:     cfg.RateLimitBurst,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		ImportMaxBytes:     cfg.ImportMaxBytes,
		StoreDriver:        cfg.StoreDriver,
		RedisClient:        redisClient,
		Bookmarks:          bookmarks,
		Resolver:           resolver,
		Sessions:           sessions,
		OAuth:              oauth,
		SessionCookie:      cfg.SessionCookie,
		CookieSecure:       cfg.CookieSecure,
		Feed:               a.broker,
		Subscribers:        hub.Count,
		FeedPingInterval:   cfg.FeedPingInterval,
		FeedWriteTimeout:   cfg.FeedWriteTimeout,
	}

	a.server = httpserver.New(cfg, log, d)
	return a, nil
}

func (a *App) openStore(ctx context.Context, redisStore *redisstore.Store) (domain.Store, error) {
	switch a.cfg.StoreDriver {
	case config.DriverRedis:
		return redisStore, nil
	case config.DriverMemory:
		a.logger.Warn("memory store selected, bookmarks are lost on restart")
		return memory.NewStore(), nil
	case config.DriverPostgres, config.DriverSQLite:
		s, err := sqlstore.Open(ctx, a.cfg.StoreDriver, a.cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s store: %w", a.cfg.StoreDriver, err)
		}
		a.closers = append(a.closers, s)
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", a.cfg.StoreDriver)
	}
}

// Run serves until ctx ends, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	build := version.Get()
	a.logger.Infof("🚀 Starting Keep %s on %s", build.Version, a.cfg.ListenPort)
	a.logger.Infof("Keep %s", build)
	defer a.close()

	relayCtx, stopRelay := context.WithCancel(ctx)
	defer stopRelay()

	errCh := make(chan error, 2)
	ready := make(chan struct{})
	go func() {
		if err := a.broker.Run(relayCtx, ready); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("feed relay error: %w", err)
		}
	}()

	// Accept no feed subscriber before the relay listens
	select {
	case <-ready:
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return nil
	}

	// Synced bookmarks are published, so the relay must already be listening
	if a.fileSync != nil {
		if err := a.fileSync.Start(ctx); err != nil {
			return fmt.Errorf("failed to start file sync: %w", err)
		}
		defer a.fileSync.Stop()
		a.logger.Info("file sync started", logger.Duration("interval", a.cfg.SyncInterval))
	}

	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}
	stopRelay()

	a.logger.Info("✅ Keep stopped cleanly")
	return nil
}

// close releases backends in reverse order of opening.
func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		utils.MustClose(a.closers[i], a.logger)
	}
	a.closers = nil
}
