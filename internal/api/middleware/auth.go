package middleware

import (
	"context"
	"net/http"

	"github.com/carebridge-health/portal/internal/api/respond"
	"github.com/carebridge-health/portal/internal/auth"
	"github.com/carebridge-health/portal/internal/domain/authz"
)

const identityKey contextKey = "identity"

// RequireAuth validates the Bearer token and stores the caller's identity
// in the request context. Requests without a valid token get 401.
func RequireAuth(tokens *auth.TokenManager, env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.TokenFromHeader(r.Header.Get("Authorization"))
			if err != nil {
				respond.Error(w, r, http.StatusUnauthorized, "Invalid or expired token", err, env)
				return
			}

			claims, err := tokens.Validate(token)
			if err != nil {
				respond.Error(w, r, http.StatusUnauthorized, "Invalid or expired token", err, env)
				return
			}

			identity := authz.Identity{
				ProfileID:      claims.Subject,
				OrganizationID: claims.OrganizationID,
				Role:           auth.NormalizeRole(claims.Role),
			}

			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
		})
	}
}

// ContextWithIdentity returns a copy of ctx carrying the caller identity.
func ContextWithIdentity(ctx context.Context, identity authz.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext returns the authenticated caller. The second result
// is false on routes that skipped RequireAuth.
func IdentityFromContext(ctx context.Context) (authz.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(authz.Identity)
	return identity, ok
}
