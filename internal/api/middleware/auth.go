package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/chetan5734v/freelancer/internal/auth"
)

type contextKey string

// usernameKey is the request context key holding the authenticated username.
const usernameKey contextKey = "username"

// AuthMiddleware verifies bearer tokens and attaches the authenticated
// username to the request context.
type AuthMiddleware struct {
	tokens *auth.Manager
}

// NewAuthMiddleware creates an AuthMiddleware using the given token manager.
func NewAuthMiddleware(tokens *auth.Manager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// RequireAuth rejects requests without a valid Bearer token.
func (a *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeAuthError(w, "missing authorization token")
			return
		}

		username, err := a.tokens.Verify(token)
		if err != nil {
			writeAuthError(w, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), usernameKey, username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken extracts the token from the Authorization header, or from
// the `token` query parameter as a fallback for websocket clients that
// cannot set headers.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// GetUsername returns the authenticated username from the request
// context, or "" if the request is unauthenticated.
func GetUsername(ctx context.Context) string {
	username, _ := ctx.Value(usernameKey).(string)
	return username
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + message + `"}`))
}
