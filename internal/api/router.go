// Package api wires handlers, middleware, and routes into the portal's
// HTTP surface.
package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/carebridge-health/portal/internal/api/handlers"
	"github.com/carebridge-health/portal/internal/api/middleware"
	"github.com/carebridge-health/portal/internal/audit"
	"github.com/carebridge-health/portal/internal/auth"
	"github.com/carebridge-health/portal/internal/config"
	"github.com/carebridge-health/portal/internal/domain/analytics"
	"github.com/carebridge-health/portal/internal/domain/content"
	"github.com/carebridge-health/portal/internal/domain/documents"
	"github.com/carebridge-health/portal/internal/domain/hospitals"
	"github.com/carebridge-health/portal/internal/domain/settings"
	"github.com/carebridge-health/portal/internal/domain/trials"
	"github.com/carebridge-health/portal/internal/domain/users"
	"github.com/carebridge-health/portal/internal/metrics"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Deps carries everything the router needs. Construction happens in the
// serve command so tests can assemble a router around fakes.
type Deps struct {
	Config config.Config
	Logger zerolog.Logger
	Pool   *pgxpool.Pool
	Tokens *auth.TokenManager
	Audit  *audit.Logger

	Users     *users.Service
	Trials    *trials.Service
	Content   *content.Service
	Hospitals *hospitals.Service
	Analytics *analytics.Service
	Documents *documents.Service
	Settings  *settings.Service

	Version string
}

func NewRouter(deps Deps) http.Handler {
	env := deps.Config.Environment

	authHandler := handlers.NewAuthHandler(deps.Users, deps.Tokens, deps.Audit, env)
	usersHandler := handlers.NewUsersHandler(deps.Users, deps.Audit, env)
	trialsHandler := handlers.NewTrialsHandler(deps.Trials, deps.Audit, env)
	enrollmentsHandler := handlers.NewEnrollmentsHandler(deps.Content, deps.Audit, env)
	newsHandler := handlers.NewNewsHandler(deps.Content, deps.Audit, env)
	trainingHandler := handlers.NewTrainingHandler(deps.Content, deps.Audit, env)
	protocolsHandler := handlers.NewProtocolsHandler(deps.Content, deps.Audit, env)
	hospitalsHandler := handlers.NewHospitalsHandler(deps.Hospitals, deps.Audit, env)
	analyticsHandler := handlers.NewAnalyticsHandler(deps.Analytics, env)
	documentsHandler := handlers.NewDocumentsHandler(deps.Documents, deps.Audit, env)
	settingsHandler := handlers.NewSettingsHandler(deps.Settings, deps.Audit, env)
	health := handlers.NewHealthChecker(deps.Pool, deps.Version)

	requireAuth := middleware.RequireAuth(deps.Tokens, env)
	rateLimit := middleware.RateLimit(deps.Config.RateLimit)

	// The limiter reads its tier from the context, so the tier wrapper has
	// to run before it.
	loginTier := func(h http.Handler) http.Handler {
		return middleware.WithRateLimitTierHandler(middleware.TierLogin)(rateLimit(h))
	}
	authed := func(h http.HandlerFunc) http.Handler {
		return middleware.WithRateLimitTierHandler(middleware.TierAPI)(rateLimit(requireAuth(h)))
	}

	mux := http.NewServeMux()

	mux.Handle("/healthz", health.Health())
	mux.Handle("/readyz", health.Readiness())
	mux.Handle("/metrics", metrics.Handler())

	mux.Handle("/api/auth/login", loginTier(methodMux(map[string]http.Handler{
		http.MethodPost: http.HandlerFunc(authHandler.Login),
	})))
	// Register shares the aggressive login tier; both endpoints accept
	// credentials from unauthenticated clients.
	mux.Handle("/api/auth/register", loginTier(methodMux(map[string]http.Handler{
		http.MethodPost: http.HandlerFunc(authHandler.Register),
	})))

	mux.Handle("/api/auth/me", methodMux(map[string]http.Handler{
		http.MethodGet: authed(authHandler.Me),
	}))
	mux.Handle("/api/auth/logout", methodMux(map[string]http.Handler{
		http.MethodPost: authed(authHandler.Logout),
	}))

	mux.Handle("/api/users", methodMux(map[string]http.Handler{
		http.MethodGet:  authed(usersHandler.List),
		http.MethodPost: authed(usersHandler.Create),
	}))
	mux.Handle("/api/users/{id}", methodMux(map[string]http.Handler{
		http.MethodGet:    authed(usersHandler.Get),
		http.MethodPut:    authed(usersHandler.Update),
		http.MethodDelete: authed(usersHandler.Delete),
	}))

	mux.Handle("/api/trials", methodMux(map[string]http.Handler{
		http.MethodGet:  authed(trialsHandler.List),
		http.MethodPost: authed(trialsHandler.Create),
	}))
	mux.Handle("/api/trials/{id}", methodMux(map[string]http.Handler{
		http.MethodGet:    authed(trialsHandler.Get),
		http.MethodPut:    authed(trialsHandler.Update),
		http.MethodDelete: authed(trialsHandler.Delete),
	}))
	mux.Handle("/api/trials/{id}/assignments", methodMux(map[string]http.Handler{
		http.MethodGet:  authed(trialsHandler.ListAssignments),
		http.MethodPost: authed(trialsHandler.Assign),
	}))
	mux.Handle("/api/trials/{id}/assignments/{userID}", methodMux(map[string]http.Handler{
		http.MethodDelete: authed(trialsHandler.Unassign),
	}))

	mux.Handle("/api/enrollments", methodMux(map[string]http.Handler{
		http.MethodGet:  authed(enrollmentsHandler.List),
		http.MethodPost: authed(enrollmentsHandler.Create),
	}))
	mux.Handle("/api/enrollments/{id}", methodMux(map[string]http.Handler{
		http.MethodPut:    authed(enrollmentsHandler.Update),
		http.MethodDelete: authed(enrollmentsHandler.Delete),
	}))

	mux.Handle("/api/news", methodMux(map[string]http.Handler{
		http.MethodGet:  authed(newsHandler.List),
		http.MethodPost: authed(newsHandler.Create),
	}))
	mux.Handle("/api/news/{id}", methodMux(map[string]http.Handler{
		http.MethodPut:    authed(newsHandler.Update),
		http.MethodDelete: authed(newsHandler.Delete),
	}))

	mux.Handle("/api/training-materials", methodMux(map[string]http.Handler{
		http.MethodGet:  authed(trainingHandler.List),
		http.MethodPost: authed(trainingHandler.Create),
	}))
	mux.Handle("/api/training-materials/{id}", methodMux(map[string]http.Handler{
		http.MethodPut:    authed(trainingHandler.Update),
		http.MethodDelete: authed(trainingHandler.Delete),
	}))

	mux.Handle("/api/protocols", methodMux(map[string]http.Handler{
		http.MethodGet:  authed(protocolsHandler.List),
		http.MethodPost: authed(protocolsHandler.Create),
	}))
	mux.Handle("/api/protocols/{id}", methodMux(map[string]http.Handler{
		http.MethodPut:    authed(protocolsHandler.Update),
		http.MethodDelete: authed(protocolsHandler.Delete),
	}))

	mux.Handle("/api/hospitals", methodMux(map[string]http.Handler{
		http.MethodGet:  authed(hospitalsHandler.Leaderboard),
		http.MethodPost: authed(hospitalsHandler.Create),
	}))
	mux.Handle("/api/hospitals/{id}", methodMux(map[string]http.Handler{
		http.MethodPut:    authed(hospitalsHandler.Update),
		http.MethodDelete: authed(hospitalsHandler.Delete),
	}))

	mux.Handle("/api/documents", methodMux(map[string]http.Handler{
		http.MethodGet:  authed(documentsHandler.List),
		http.MethodPost: authed(documentsHandler.Upload),
	}))
	mux.Handle("/api/documents/{id}", methodMux(map[string]http.Handler{
		http.MethodDelete: authed(documentsHandler.Delete),
	}))
	mux.Handle("/api/documents/{id}/download", methodMux(map[string]http.Handler{
		http.MethodGet: authed(documentsHandler.DownloadURL),
	}))

	mux.Handle("/api/analytics/summary", methodMux(map[string]http.Handler{
		http.MethodGet: authed(analyticsHandler.Summary),
	}))

	mux.Handle("/api/settings", methodMux(map[string]http.Handler{
		http.MethodGet: authed(settingsHandler.Get),
		http.MethodPut: authed(settingsHandler.Update),
	}))

	// Outermost first: recovery wraps everything, then correlation and
	// logging so every later stage logs with a request id.
	var handler http.Handler = mux
	handler = metrics.HTTPMiddleware(handler)
	handler = middleware.CORS(deps.Config.CORS, deps.Logger)(handler)
	handler = middleware.SecurityHeaders(env == "production")(handler)
	handler = middleware.RequestLogging(deps.Logger)(handler)
	handler = middleware.RequestID(deps.Logger)(handler)
	handler = middleware.Recover(env)(handler)

	return handler
}

func methodMux(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allowedMethods(handlers))
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
