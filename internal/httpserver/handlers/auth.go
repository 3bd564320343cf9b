package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/keep/internal/auth"
	"github.com/MrSnakeDoc/keep/internal/httpserver/deps"
	"github.com/MrSnakeDoc/keep/internal/httpserver/respond"
	"github.com/MrSnakeDoc/keep/internal/logger"
)

const callbackPath = "/auth/callback"

type loginResponse struct {
	URL string `json:"url"`
}

// Login handles POST /auth/login: it returns the provider URL to send the
// browser to.
func Login(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !d.OAuth.Enabled() {
			respond.Error(w, http.StatusBadRequest, auth.ErrOAuthDisabled.Error())
			return
		}

		target, err := d.OAuth.LoginURL(r.Context(), callbackURL(d, r))
		if err != nil {
			d.Logger.Error("oauth login failed",
				logger.String("request_id", middleware.GetReqID(r.Context())),
				logger.Error(err),
			)
			respond.Error(w, http.StatusBadRequest, "Failed to start login")
			return
		}

		respond.JSON(w, http.StatusOK, loginResponse{URL: target})
	}
}

// Callback handles GET /auth/callback: it opens a session and sets the cookie.
func Callback(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if e := q.Get("error"); e != "" {
			respond.Error(w, http.StatusBadRequest, "Login was cancelled or denied")
			return
		}

		session, err := d.OAuth.Callback(r.Context(), callbackURL(d, r), q.Get("code"), q.Get("state"))
		if err != nil {
			d.Logger.Warn("oauth callback failed",
				logger.String("request_id", middleware.GetReqID(r.Context())),
				logger.Error(err),
			)
			switch {
			case errors.Is(err, auth.ErrOAuthDisabled):
				respond.Error(w, http.StatusBadRequest, err.Error())
			case errors.Is(err, auth.ErrInvalidState), errors.Is(err, auth.ErrInvalidCredential):
				respond.Error(w, http.StatusBadRequest, "Login failed")
			default:
				respond.Error(w, http.StatusInternalServerError, "Login failed")
			}
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     d.SessionCookie,
			Value:    session.ID,
			Path:     "/",
			Expires:  session.ExpiresAt,
			MaxAge:   int(time.Until(session.ExpiresAt).Seconds()),
			HttpOnly: true,
			Secure:   d.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})

		d.Logger.Info("session opened", logger.String("owner_id", session.Identity.ID))
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// Logout handles POST /auth/logout. It always succeeds.
func Logout(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(d.SessionCookie); err == nil && c.Value != "" {
			if err := d.Sessions.Revoke(r.Context(), c.Value); err != nil {
				d.Logger.Warn("session revoke failed", logger.Error(err))
			}
		}

		http.SetCookie(w, &http.Cookie{
			Name:     d.SessionCookie,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   d.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})

		respond.Message(w, http.StatusOK, "Signed out")
	}
}

// callbackURL is the redirect URI registered with the provider.
func callbackURL(d deps.Deps, r *http.Request) string {
	if d.PublicURL != "" {
		return strings.TrimRight(d.PublicURL, "/") + callbackPath
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	} else if d.TrustProxy && strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + r.Host + callbackPath
}
