package auth

import (
	"net/http"
	"strings"

	"github.com/safesite/service-compliance-core/internal/apperror"
	"github.com/safesite/service-compliance-core/internal/httpx"
)

// Middleware returns a middleware that requires a valid bearer token and
// stores the resulting Identity in the request context.
func Middleware(cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				httpx.WriteError(w, apperror.Authentication("missing authorization header"))
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				httpx.WriteError(w, apperror.Authentication("authorization header format must be Bearer {token}"))
				return
			}

			userID, err := GetUserIDFromToken(parts[1], cfg.Secret)
			if err != nil {
				httpx.WriteError(w, apperror.Authentication("invalid or expired token"))
				return
			}

			ctx := WithIdentity(r.Context(), Identity{UserID: userID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
