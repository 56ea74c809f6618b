package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"learnhub-backend/internal/models"
	"learnhub-backend/internal/storage"
)

type contextKey string

const callerKey contextKey = "learnhub_caller"

// Middleware resolves the bearer token to a live user row on every request.
// A missing caller and an inactive caller are the same thing: unauthenticated.
func Middleware(tokens *TokenManager, store *storage.Storage) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				unauthorized(w)
				return
			}

			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			if token == "" {
				unauthorized(w)
				return
			}

			claims, err := tokens.ParseToken(token)
			if err != nil || claims.Subject == "" {
				unauthorized(w)
				return
			}

			user, err := store.GetUser(r.Context(), claims.Subject)
			if err != nil || user == nil || !user.IsActive {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), callerKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CallerFromContext returns the authenticated user placed by Middleware.
func CallerFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(callerKey).(*models.User)
	return user, ok
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
}
