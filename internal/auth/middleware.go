package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/unxchange/auth-service/internal/httputil"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

// IdentityContextKey is the key under which the resolved identity is stored
const IdentityContextKey ContextKey = "identity"

// Middleware gates protected routes behind bearer-token authorization.
type Middleware struct {
	service *Service
}

func NewMiddleware(service *Service) *Middleware {
	return &Middleware{service: service}
}

// RequireAuth validates the bearer token and resolves it to a live user
// before the wrapped handler runs. All token failures collapse into 401;
// the specific codes exist for client diagnostics, not for distinguishing
// accounts.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.RespondErrorWithCode(w, "invalid authorization header format", httputil.CodeInvalidAuthHeader, http.StatusUnauthorized)
			return
		}

		identity, err := m.service.Authorize(r.Context(), parts[1])
		if err != nil {
			switch {
			case errors.Is(err, ErrTokenExpired):
				httputil.RespondErrorWithCode(w, "token has expired", httputil.CodeTokenExpired, http.StatusUnauthorized)
			case errors.Is(err, ErrIdentityNotFound):
				httputil.RespondErrorWithCode(w, "unauthorized", httputil.CodeIdentityNotFound, http.StatusUnauthorized)
			case errors.Is(err, ErrTokenMalformed), errors.Is(err, ErrTokenSignatureInvalid):
				httputil.RespondErrorWithCode(w, "invalid token", httputil.CodeInvalidToken, http.StatusUnauthorized)
			default:
				httputil.RespondErrorWithCode(w, "service unavailable", httputil.CodeStorageUnavailable, http.StatusServiceUnavailable)
			}
			return
		}

		ctx := context.WithValue(r.Context(), IdentityContextKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// IdentityFromContext extracts the resolved identity from the request context
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(IdentityContextKey).(*Identity)
	return identity, ok
}
