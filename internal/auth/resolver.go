// Package auth resolves the identity a request acts for.
//
// Resolution is an ordered chain of read-only strategies: the session cookie
// first, then an "Authorization: Bearer" token. The first strategy that yields
// an identity wins; callers only ever learn success or domain.ErrUnauthorized.
package auth

import (
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/keep/internal/domain"
	"github.com/MrSnakeDoc/keep/internal/logger"
)

var (
	// ErrNoCredential means the strategy found nothing to verify.
	ErrNoCredential = errors.New("no credential")
	// ErrInvalidCredential means a credential was present but rejected.
	ErrInvalidCredential = errors.New("invalid credential")
)

// Resolver is one identity resolution strategy. Implementations must not
// mutate any session state.
type Resolver interface {
	Resolve(r *http.Request) (domain.Identity, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(r *http.Request) (domain.Identity, error)

func (f ResolverFunc) Resolve(r *http.Request) (domain.Identity, error) { return f(r) }

// Chain tries each resolver in order.
type Chain struct {
	resolvers []Resolver
	log       logger.Logger
}

var _ Resolver = (*Chain)(nil)

// NewChain builds a chain. Order matters: first success wins.
func NewChain(log logger.Logger, resolvers ...Resolver) *Chain {
	return &Chain{resolvers: resolvers, log: log}
}

// Resolve returns the first identity any strategy produces, or
// domain.ErrUnauthorized.
func (c *Chain) Resolve(r *http.Request) (domain.Identity, error) {
	for _, res := range c.resolvers {
		id, err := res.Resolve(r)
		if err == nil && id.ID != "" {
			return id, nil
		}

		switch {
		case err == nil, errors.Is(err, ErrNoCredential):
		case errors.Is(err, ErrInvalidCredential):
			c.log.Debug("credential rejected", logger.Error(err))
		default:
			// Infrastructure failure, the request still just fails to authenticate
			c.log.Warn("identity resolution failed", logger.Error(err))
		}
	}
	return domain.Identity{}, domain.ErrUnauthorized
}
