package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/sakif/postboard/internal/model"
	"github.com/sakif/postboard/internal/repository"
)

// contextKey is an unexported type used for context keys in this package.
//
// context.WithValue uses any as the key type. A package-private type
// prevents collisions: only THIS package can create a key of type
// contextKey, so only this package can read or write these values.
type contextKey string

const (
	userKey  contextKey = "user"
	tokenKey contextKey = "token"
)

// RequireAuth is the middleware that gates protected routes.
//
// Per request it walks a small state machine:
//
//	UNAUTHENTICATED → bearer token present, verifiable, AND equal to the
//	user's stored token → AUTHENTICATED; anything else → REJECTED (401).
//
// Steps:
//  1. Extract the bearer token from the Authorization header
//  2. Validate signature/expiry/issuer (TokenService)
//  3. Load the user by the decoded ID
//  4. Compare the presented token to the user's stored token — this is the
//     single-active-session check: a re-login overwrites the stored token
//     and a logout clears it, so older tokens fail here even though their
//     signatures still verify
//  5. Attach the resolved user and token to the request context
//
// The gate is read-only — it never mutates the store.
func RequireAuth(tokens *TokenService, users repository.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := bearerToken(r)
			if !ok {
				unauthorized(w)
				return
			}

			identity, err := tokens.Validate(tokenStr)
			if err != nil {
				unauthorized(w)
				return
			}

			user, err := users.GetByID(r.Context(), identity.UserID)
			if err != nil {
				// Deleted user or store failure — either way the caller
				// isn't authenticated. Don't leak which.
				unauthorized(w)
				return
			}

			// Stale-session check. Logout stores "", which never equals a
			// presented token, so logged-out tokens are rejected here too.
			if user.Token == "" || user.Token != tokenStr {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			ctx = context.WithValue(ctx, tokenKey, tokenStr)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext retrieves the authenticated user from the request context.
//
// Returns (nil, false) on an unauthenticated request. On any route behind
// RequireAuth it always returns (user, true).
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}

// TokenFromContext retrieves the bearer token the request presented.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey).(string)
	return token, ok && token != ""
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme comparison is case-insensitive per RFC 7235.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}

	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	http.Error(w, `{"error":"unauthorized","message":"valid authentication required"}`, http.StatusUnauthorized)
}
