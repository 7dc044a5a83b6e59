package httpapi

import (
	"net/http"
	"strings"

	"gatherly.org/internal/auth"
)

// Authenticate extracts and validates the bearer token, stashing the
// verified claims in the request context. Requests without a valid token
// are rejected before reaching the handler.
func (a *API) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get("Authorization"))
		if raw == "" {
			writeError(w, r, http.StatusUnauthorized, "authentication required")
			return
		}
		scheme, token, ok := strings.Cut(raw, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			writeError(w, r, http.StatusUnauthorized, "malformed authorization header")
			return
		}
		claims, err := a.Auth.Validate(token)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		ctx := auth.ContextWithClaims(r.Context(), claims)
		ctx = auth.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
