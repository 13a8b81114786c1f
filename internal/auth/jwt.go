// Package auth provides JWT session tokens, the HTTP middleware that
// validates them, and the OAuth providers used for social login.
//
// AUTHENTICATION FLOW OVERVIEW:
// 1. User joins by email (POST /auth/join) or via OAuth (/auth/{provider}/login)
// 2. Server issues a JWT, stored in an HttpOnly cookie
// 3. On subsequent requests, middleware reads the cookie, validates the JWT,
//    and puts the userID into the request context
// 4. While the token is still young (≤ 2h old), every authenticated request
//    silently re-issues a fresh one — active users never see a login screen
//
// WHY JWT?
// JWT is stateless — the server stores no session table. Everything needed
// (userID, issue time, expiry) lives inside the signed token, and the HMAC
// signature ensures nobody can tamper with it without the secret key.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// TokenTTL is how long a token is valid from its issue time.
	TokenTTL = 24 * time.Hour

	// RenewalWindow is the sliding-expiry gate: a valid token presented
	// within this long of its issue time gets replaced by a fresh one
	// (resetting the full 24h validity). Presented later than this but
	// before expiry, it still works — it just stops sliding.
	//
	// The gate exists so a stolen token can't be kept alive forever by
	// replaying it once a day; the attacker has at most a 2h window to
	// start the treadmill.
	RenewalWindow = 2 * time.Hour

	issuer = "workmates"
)

// TokenService handles JWT creation and validation. It holds the HMAC secret
// used to sign and verify — the same secret does both (HS256 is symmetric).
type TokenService struct {
	secret []byte

	// now is swappable in tests so expiry/renewal behaviour can be checked
	// without sleeping.
	now func() time.Time
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret), now: time.Now}, nil
}

// Session is the identity a validated token resolves to.
type Session struct {
	UserID   string
	IssuedAt time.Time
}

// Age returns how long ago the session's token was issued.
func (s *Session) Age(now time.Time) time.Duration {
	return now.Sub(s.IssuedAt)
}

// claims embeds jwt.RegisteredClaims; we use the standard "sub" claim for
// the internal user ID and "iat" for the issue time the renewal gate needs.
type claims struct {
	jwt.RegisteredClaims
}

// Generate creates and signs a new 24-hour token for the given userID.
func (s *TokenService) Generate(userID string) (string, error) {
	now := s.now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a JWT string, returning the session it encodes.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid (wasn't tampered with)
//   - Token is not expired
//   - Issuer matches (prevents tokens minted by other apps with other bugs)
//   - Algorithm is HS256 — jwt.WithValidMethods prevents the classic
//     algorithm-confusion attack where an attacker sends alg=none
func (s *TokenService) Validate(tokenStr string) (*Session, error) {
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
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("auth: token expired")
		}
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return nil, fmt.Errorf("auth: token has no subject")
	}
	if c.IssuedAt == nil {
		return nil, fmt.Errorf("auth: token has no issue time")
	}

	return &Session{UserID: c.Subject, IssuedAt: c.IssuedAt.Time}, nil
}

// ShouldRenew reports whether a validated session is still inside the
// renewal window. The middleware calls this on every authenticated request
// and re-issues the cookie when it returns true.
func (s *TokenService) ShouldRenew(sess *Session) bool {
	age := sess.Age(s.now())
	return age >= 0 && age <= RenewalWindow
}
