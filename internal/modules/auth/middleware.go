package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

type contextKey struct{}

// FromContext returns the principal stored by Middleware.
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(*Principal)
	return p, ok
}

// Middleware rejects requests without a valid admin or manager bearer token.
func Middleware(svc Service, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				respond(w, http.StatusUnauthorized, "authorization header must be: Bearer <token>")
				return
			}

			p, err := svc.Verify(r.Context(), strings.TrimSpace(token))
			switch {
			case errors.Is(err, ErrUnauthorized):
				respond(w, http.StatusUnauthorized, err.Error())
				return
			case errors.Is(err, ErrForbidden):
				logger.WarnContext(r.Context(), "admin access denied", "path", r.URL.Path)
				respond(w, http.StatusForbidden, err.Error())
				return
			case err != nil:
				logger.ErrorContext(r.Context(), "token verification failed", "error", err)
				respond(w, http.StatusInternalServerError, "internal error")
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, p)))
		})
	}
}

func respond(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
