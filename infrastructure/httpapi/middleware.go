package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"chat-relay/auth"
)

type contextKey string

const usernameContextKey contextKey = "username"

// UsernameFromContext returns the identity resolved by RequireAuth.
func UsernameFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(usernameContextKey).(string)
	return username, ok
}

// RequireAuth verifies the Bearer token and stores the claimed username in
// the request context. Failures are reported in the same {ok, error} shape
// as every other endpoint.
func RequireAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || token == "" {
				unauthorized(w, "no-token")
				return
			}

			claims, err := auth.ValidateToken(secret, token)
			if err != nil {
				unauthorized(w, "invalid-token")
				return
			}

			ctx := context.WithValue(r.Context(), usernameContextKey, claims.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": code})
}
