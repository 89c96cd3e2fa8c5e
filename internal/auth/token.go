// Package auth issues and validates the bearer tokens that authenticate
// every mutating request.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"

	"github.com/chirpd/microblog/internal/apperrors"
)

const (
	// DefaultTokenTTL is the validity of tokens issued without an explicit
	// lifetime.
	DefaultTokenTTL = 15 * time.Minute
	// LoginTokenTTL is the validity of tokens issued by the login flow.
	LoginTokenTTL = 30 * time.Minute
)

// TokenService signs and verifies HS256 JWTs carrying a subject claim and an
// absolute expiry. There is no revocation list; tokens stay valid until they
// expire.
type TokenService struct {
	secret []byte
	clock  clockwork.Clock
}

// NewTokenService creates a TokenService signing with secret. The clock
// drives both issuance and expiry checks.
func NewTokenService(secret []byte, clock clockwork.Clock) *TokenService {
	return &TokenService{secret: secret, clock: clock}
}

// Issue returns a signed token embedding subject, valid for ttl from now.
// A non-positive ttl falls back to DefaultTokenTTL.
func (s *TokenService) Issue(subject string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	now := s.clock.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate verifies a token's signature and expiry and returns its subject.
// Any failure, bad signature, unparsable payload or elapsed expiry, is
// reported as the same Unauthorized error.
func (s *TokenService) Validate(tokenString string) (string, error) {
	parsed, err := jwt.ParseWithClaims(
		tokenString,
		&jwt.RegisteredClaims{},
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(s.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", apperrors.Unauthorized("could not validate credentials")
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", apperrors.Unauthorized("could not validate credentials")
	}
	return claims.Subject, nil
}
