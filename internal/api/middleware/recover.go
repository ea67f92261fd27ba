package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/carebridge-health/portal/internal/api/respond"
	"github.com/rs/zerolog"
)

// Recover converts handler panics into 500 responses instead of tearing
// down the connection.
func Recover(env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					zerolog.Ctx(r.Context()).Error().
						Interface("panic", rec).
						Bytes("stack", debug.Stack()).
						Str("path", r.URL.Path).
						Msg("handler panic")
					respond.Error(w, r, http.StatusInternalServerError, "Internal server error", nil, env)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
