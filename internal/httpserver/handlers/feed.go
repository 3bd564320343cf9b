package handlers

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MrSnakeDoc/keep/internal/domain"
	"github.com/MrSnakeDoc/keep/internal/httpserver/deps"
	"github.com/MrSnakeDoc/keep/internal/httpserver/respond"
	"github.com/MrSnakeDoc/keep/internal/logger"
)

// Clients never send data frames, only control frames.
const feedReadLimit = 512

// Feed handles GET /bookmarks/feed: it upgrades to a websocket and streams
// the caller's change events as JSON text frames until either side leaves.
func Feed(d deps.Deps) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     checkOrigin(d.AllowedOrigins),
	}

	ping := d.FeedPingInterval
	if ping <= 0 {
		ping = 30 * time.Second
	}
	writeTimeout := d.FeedWriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}

	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := domain.IdentityFrom(r.Context())
		if !ok {
			respond.Unauthorized(w)
			return
		}

		sub, err := d.Feed.Subscribe(r.Context(), id.ID)
		if err != nil {
			d.Logger.Error("feed subscribe failed", logger.String("owner_id", id.ID), logger.Error(err))
			respond.Error(w, http.StatusInternalServerError, "Failed to open feed")
			return
		}
		defer sub.Close()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already answered the client
			d.Logger.Debug("feed upgrade failed", logger.Error(err))
			return
		}
		defer func() { _ = conn.Close() }()

		log := d.Logger.With(logger.String("owner_id", id.ID), logger.String("subscriber", sub.ID))
		log.Info("feed connected")

		// The reader only exists to process control frames and notice the disconnect
		gone := make(chan struct{})
		go func() {
			defer close(gone)
			conn.SetReadLimit(feedReadLimit)
			_ = conn.SetReadDeadline(time.Now().Add(2 * ping))
			conn.SetPongHandler(func(string) error {
				return conn.SetReadDeadline(time.Now().Add(2 * ping))
			})
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(ping)
		defer ticker.Stop()

		for {
			select {
			case <-gone:
				log.Info("feed disconnected")
				return

			case ev, ok := <-sub.C:
				if !ok {
					code, reason := websocket.CloseNormalClosure, "feed closed"
					if sub.Overflowed() {
						code, reason = websocket.CloseTryAgainLater, "subscriber too slow"
					}
					_ = conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(code, reason),
						time.Now().Add(writeTimeout))
					log.Info("feed closed by server", logger.String("reason", reason))
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteJSON(ev); err != nil {
					log.Debug("feed write failed", logger.Error(err))
					return
				}

			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
					log.Debug("feed ping failed", logger.Error(err))
					return
				}
			}
		}
	}
}

// checkOrigin accepts non-browser clients (no Origin), same-host pages and
// the configured origins. Cookie sessions would otherwise be usable from any site.
func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		if strings.EqualFold(u.Host, r.Host) {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(strings.TrimRight(a, "/"), origin) {
				return true
			}
		}
		return false
	}
}
