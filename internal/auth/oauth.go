package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/MrSnakeDoc/keep/internal/domain"
)

// StateTTL bounds the time between login and callback.
const StateTTL = 10 * time.Minute

var (
	// ErrOAuthDisabled is returned when no provider is configured.
	ErrOAuthDisabled = errors.New("oauth provider is not configured")
	// ErrInvalidState is returned for unknown, expired or replayed states.
	ErrInvalidState = errors.New("invalid oauth state")
)

// StateStore keeps one-time OAuth state values.
type StateStore interface {
	SaveOAuthState(ctx context.Context, state string, ttl time.Duration) error
	ConsumeOAuthState(ctx context.Context, state string) (bool, error)
}

// OAuthConfig describes the delegated provider.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	Scopes       []string
}

// OAuth runs the authorization code flow and turns the provider token into a
// server-side session.
type OAuth struct {
	cfg      OAuthConfig
	states   StateStore
	verifier Verifier
	sessions *Sessions
}

// NewOAuth creates the flow. An empty ClientID disables login.
func NewOAuth(cfg OAuthConfig, states StateStore, verifier Verifier, sessions *Sessions) *OAuth {
	return &OAuth{cfg: cfg, states: states, verifier: verifier, sessions: sessions}
}

// Enabled reports whether a provider is configured.
func (o *OAuth) Enabled() bool {
	return o != nil && o.cfg.ClientID != ""
}

func (o *OAuth) config(redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     o.cfg.ClientID,
		ClientSecret: o.cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  o.cfg.AuthURL,
			TokenURL: o.cfg.TokenURL,
		},
		RedirectURL: redirectURL,
		Scopes:      o.cfg.Scopes,
	}
}

// LoginURL issues a state and returns the provider URL to redirect to.
func (o *OAuth) LoginURL(ctx context.Context, redirectURL string) (string, error) {
	if !o.Enabled() {
		return "", ErrOAuthDisabled
	}

	state, err := RandomToken()
	if err != nil {
		return "", err
	}
	if err := o.states.SaveOAuthState(ctx, state, StateTTL); err != nil {
		return "", err
	}

	return o.config(redirectURL).AuthCodeURL(state), nil
}

// Callback consumes state, exchanges code and opens a session for the
// identity carried by the provider's access token.
func (o *OAuth) Callback(ctx context.Context, redirectURL, code, state string) (domain.Session, error) {
	if !o.Enabled() {
		return domain.Session{}, ErrOAuthDisabled
	}

	ok, err := o.states.ConsumeOAuthState(ctx, state)
	if err != nil {
		return domain.Session{}, err
	}
	if !ok {
		return domain.Session{}, ErrInvalidState
	}
	if code == "" {
		return domain.Session{}, fmt.Errorf("%w: missing code", ErrInvalidCredential)
	}

	tok, err := o.config(redirectURL).Exchange(ctx, code)
	if err != nil {
		return domain.Session{}, fmt.Errorf("%w: code exchange: %v", ErrInvalidCredential, err)
	}

	id, err := o.verifier.Verify(ctx, tok.AccessToken)
	if err != nil {
		return domain.Session{}, err
	}

	return o.sessions.Create(ctx, id)
}
