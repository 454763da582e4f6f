package middleware

import (
	"context"
	"net/http"
	"strings"

	"masterboxer.com/project-instaclone/apperrors"
	"masterboxer.com/project-instaclone/respond"
)

// TokenCookie is the name of the session cookie
const TokenCookie = "token"

type contextKey string

const userIDKey contextKey = "userID"

type TokenParser interface {
	Parse(token string) (string, error)
}

// Authenticate resolves the session token from the cookie, or from a Bearer
// header, and stores the user id in the request context.
func Authenticate(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				respond.Error(w, r, apperrors.Unauthenticated("User not authenticated"))
				return
			}

			userID, err := parser.Parse(token)
			if err != nil {
				respond.Error(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(TokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID returns the authenticated user id, or "" outside Authenticate
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}
