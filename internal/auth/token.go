package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MrSnakeDoc/keep/internal/domain"
)

// Claims is the token payload. Subject is the user id.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenVerifier checks HS256 tokens signed with the provider's shared secret.
type TokenVerifier struct {
	secret   []byte
	issuer   string
	audience string
	now      func() time.Time
}

var _ Verifier = (*TokenVerifier)(nil)

// NewTokenVerifier creates a verifier. Empty issuer or audience are not checked.
func NewTokenVerifier(secret, issuer, audience string) *TokenVerifier {
	return &TokenVerifier{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		now:      time.Now,
	}
}

// Verify parses and validates token. exp is mandatory.
func (v *TokenVerifier) Verify(_ context.Context, token string) (domain.Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
		jwt.WithLeeway(30 * time.Second),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	if claims.Subject == "" {
		return domain.Identity{}, fmt.Errorf("%w: missing subject", ErrInvalidCredential)
	}

	return domain.Identity{ID: claims.Subject, Email: claims.Email}, nil
}

// Signer mints tokens the TokenVerifier accepts. Used by the CLI and tests.
type Signer struct {
	secret   []byte
	issuer   string
	audience string
	now      func() time.Time
}

// NewSigner creates a signer with the same parameters as the verifier.
func NewSigner(secret, issuer, audience string) *Signer {
	return &Signer{secret: []byte(secret), issuer: issuer, audience: audience, now: time.Now}
}

// Sign returns a token for id valid for ttl.
func (s *Signer) Sign(id domain.Identity, ttl time.Duration) (string, error) {
	if id.ID == "" {
		return "", errors.New("identity id is required")
	}
	if ttl <= 0 {
		return "", errors.New("ttl must be positive")
	}

	now := s.now()
	claims := Claims{
		Email: id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if s.audience != "" {
		claims.Audience = jwt.ClaimStrings{s.audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
