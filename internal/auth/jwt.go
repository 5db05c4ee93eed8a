// Package auth provides JWT token generation and validation for the API.
//
// AUTHENTICATION FLOW OVERVIEW:
// 1. User signs up or logs in with email/password
// 2. Server issues a JWT binding {userID, email} with an 8-hour expiry
// 3. The token is persisted as the user's single current session token
// 4. On subsequent calls the client sends "Authorization: Bearer <token>"
// 5. Middleware validates the JWT, loads the user, and checks the presented
//    token against the stored one (see middleware.go)
//
// The signature lets the server verify a token without any DB lookup; the
// stored-token comparison is what enforces the one-session-at-a-time policy
// on top of that.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenTTL is how long an issued token stays cryptographically valid.
// After expiry the user must log in again.
const tokenTTL = 8 * time.Hour

const issuer = "postboard"

// Sentinel errors returned by Validate. The HTTP boundary maps both to 401,
// but they're distinct so callers (and logs) can tell a stale session from a
// forged or malformed token.
var (
	ErrTokenExpired = errors.New("auth: token expired")
	ErrTokenInvalid = errors.New("auth: token invalid")
)

// TokenService handles JWT creation and validation.
//
// It holds the HMAC secret key used to sign and verify tokens. The secret is
// injected at construction — nothing in this package reads the environment.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// Claims is the JWT payload. It embeds jwt.RegisteredClaims (Subject,
// ExpiresAt, IssuedAt, Issuer) and adds the user's email.
//
// "sub" carries the internal user ID — the standard claim for identifying
// who the token belongs to.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Identity is the decoded result of a successful Validate call.
type Identity struct {
	UserID string
	Email  string
}

// Generate creates and signs a new JWT for the given user.
//
// Signing algorithm: HS256 (HMAC-SHA256) — symmetric, same key signs and
// verifies. Token lifetime is 8 hours from issuance.
//
// Generate does NOT persist anything; the auth service stores the returned
// token on the user record so the gate can enforce single-session.
func (s *TokenService) Generate(userID, email string) (string, error) {
	return s.GenerateWithDuration(userID, email, tokenTTL)
}

// GenerateWithDuration creates a token with a custom expiry duration.
// Used in tests to mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(userID, email string, d time.Duration) (string, error) {
	now := time.Now()

	c := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
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

// Validate parses and verifies a JWT string and returns the identity it
// encodes.
//
// Checks performed (by the jwt library, configured below):
//   - Signature is valid (token wasn't tampered with)
//   - Token is not expired
//   - Issuer matches (prevents tokens from other apps signed with a reused secret)
//   - Algorithm is HS256 (prevents algorithm confusion attacks)
//
// Returns ErrTokenExpired for an expired token and ErrTokenInvalid for any
// other failure (bad signature, wrong format, missing subject).
func (s *TokenService) Validate(tokenStr string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: unexpected claims type", ErrTokenInvalid)
	}

	if c.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrTokenInvalid)
	}

	return &Identity{UserID: c.Subject, Email: c.Email}, nil
}
