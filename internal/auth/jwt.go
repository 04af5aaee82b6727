// Package auth provides session tokens, password hashing, and the GitHub
// OAuth flow — together they are the session provider for the text API.
//
// SESSION FLOW:
//  1. User registers or logs in (email+password) or completes GitHub OAuth
//  2. Server issues a JWT access token in an HttpOnly cookie
//  3. On later requests, middleware reads the cookie, validates the JWT,
//     and puts the userID in the request context
//
// JWT is stateless: everything the server needs (userID, expiry) lives
// inside the signed token, so validation needs no database lookup — only
// the HMAC secret.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenIssuer is baked into every token and checked on validation, so a JWT
// minted by some other app using the same library can't be replayed here.
const tokenIssuer = "txtshr"

// tokenLifetime is how long a session token stays valid. After expiry the
// user logs in again; there is no refresh-token mechanism.
const tokenLifetime = 24 * time.Hour

// TokenService signs and verifies session tokens with an HMAC secret.
// The same secret serves both operations — keep it out of version control
// and rotate it periodically in production.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService. The secret should be at least 32
// bytes of random data in production (e.g. `openssl rand -hex 32`); below 16
// characters is rejected outright.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims is the JWT payload. The "sub" (Subject) registered claim carries
// the internal user ID — the standard claim for token ownership.
type claims struct {
	jwt.RegisteredClaims
}

// Generate creates and signs a session token for the given userID.
//
// HS256 (HMAC-SHA256): symmetric, same key signs and verifies. Fine for a
// single-server deployment; asymmetric RS256 only pays off when other
// services must verify tokens without the signing key.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, tokenLifetime)
}

// GenerateWithDuration creates a token with a custom expiry. Used by tests
// to mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string, returning the userID from its
// Subject claim.
//
// The library checks signature, expiry and issuer. Pinning the algorithm to
// HS256 via WithValidMethods blocks algorithm-confusion attacks (a token
// claiming alg "none" or an asymmetric scheme is rejected before the key
// function even runs).
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}

	if c.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}

	return c.Subject, nil
}
