package api

import (
	"context"
	"net/http"
	"strings"

	"course-chat/domain"
	"course-chat/services"
)

type contextKey string

const userIDKey contextKey = "userID"

// bearerToken prefers the Authorization header and falls back to the
// token query parameter (the websocket attach path cannot set headers
// from browsers).
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(auth[len("Bearer "):])
	}
	return r.URL.Query().Get("token")
}

// RequireAuth rejects requests without a resolvable identity and stores the
// caller's UserID in the request context. The core never infers identities.
func RequireAuth(auth services.IAuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				respondError(w, http.StatusUnauthorized, "missing token")
				return
			}
			userID, err := auth.ResolveIdentity(token)
			if err != nil {
				respondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// callerID returns the authenticated user stored by RequireAuth.
func callerID(r *http.Request) (domain.UserID, bool) {
	userID, ok := r.Context().Value(userIDKey).(domain.UserID)
	return userID, ok
}
