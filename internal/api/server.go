package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/planbook-app/planbook/internal/config"
	"github.com/planbook-app/planbook/internal/logging"
	"github.com/planbook-app/planbook/internal/metrics"
	"github.com/planbook-app/planbook/internal/middleware"
	"github.com/planbook-app/planbook/internal/store"
	"github.com/planbook-app/planbook/internal/supabase"
)

// Deps bundles everything the HTTP surface needs, built once in main and
// injected.
type Deps struct {
	Config  *config.Config
	Client  *supabase.Client
	Repo    *store.Repository
	Logger  *logging.Logger
	Metrics *metrics.Metrics
}

// NewHandler builds the full routing tree with its middleware chain.
func NewHandler(d Deps) http.Handler {
	r := mux.NewRouter()

	auth := middleware.NewAuth(d.Client, middleware.AuthConfig{
		JWTSecret: d.Config.SupabaseJWTSecret,
	})
	limiter := middleware.NewRateLimiter(d.Config.RateLimitPerSecond, d.Config.RateLimitBurst, d.Logger)
	limiter.StartCleanup(10 * time.Minute)

	r.Use(middleware.LoggingMiddleware(d.Logger))
	r.Use(middleware.MetricsMiddleware(d.Metrics))
	// Throttling runs before token resolution so a flood of bogus tokens
	// cannot burn a remote auth lookup per request.
	r.Use(limiter.Handler)
	r.Use(auth.Middleware)

	r.HandleFunc("/health", healthHandler()).Methods(http.MethodGet)
	r.Handle("/metrics", d.Metrics.Handler()).Methods(http.MethodGet)

	authRouter := r.PathPrefix("/auth/accounts").Subrouter()
	authRouter.HandleFunc("/signup", signupHandler(d.Client)).Methods(http.MethodPost)
	authRouter.HandleFunc("/login", loginHandler(d.Client)).Methods(http.MethodPost)
	authRouter.HandleFunc("/logout", logoutHandler(d.Client)).Methods(http.MethodPost)
	authRouter.HandleFunc("/user", currentUserHandler()).Methods(http.MethodGet)

	// Category reference data is readable without a token.
	r.HandleFunc("/api/v1/plans/categories", listCategoriesHandler(d.Repo)).Methods(http.MethodGet)

	plans := r.PathPrefix("/api/v1/plans").Subrouter()
	plans.Use(auth.RequireAuth)

	// Fixed segments are registered before {plan_id} so "stats" never
	// resolves as a plan id.
	plans.HandleFunc("/stats", planStatsHandler(d.Repo)).Methods(http.MethodGet)
	plans.HandleFunc("", createPlanHandler(d.Repo)).Methods(http.MethodPost)
	plans.HandleFunc("", listPlansHandler(d.Repo)).Methods(http.MethodGet)
	plans.HandleFunc("/{plan_id}", getPlanHandler(d.Repo)).Methods(http.MethodGet)
	plans.HandleFunc("/{plan_id}", updatePlanHandler(d.Repo)).Methods(http.MethodPut)
	plans.HandleFunc("/{plan_id}", deletePlanHandler(d.Repo)).Methods(http.MethodDelete)

	plans.HandleFunc("/{plan_id}/guests", addGuestHandler(d.Repo)).Methods(http.MethodPost)
	plans.HandleFunc("/{plan_id}/guests", listGuestsHandler(d.Repo)).Methods(http.MethodGet)
	plans.HandleFunc("/{plan_id}/guests/search", searchGuestsHandler(d.Repo)).Methods(http.MethodGet)
	plans.HandleFunc("/{plan_id}/guests/{guest_id}", getGuestHandler(d.Repo)).Methods(http.MethodGet)
	plans.HandleFunc("/{plan_id}/guests/{guest_id}", updateGuestHandler(d.Repo)).Methods(http.MethodPut)
	plans.HandleFunc("/{plan_id}/guests/{guest_id}", deleteGuestHandler(d.Repo)).Methods(http.MethodDelete)
	plans.HandleFunc("/{plan_id}/guests/{guest_id}/rsvp", updateRSVPHandler(d.Repo)).Methods(http.MethodPut)
	plans.HandleFunc("/{plan_id}/guests/{guest_id}/invite", sendInvitationHandler(d.Repo)).Methods(http.MethodPost)
	plans.HandleFunc("/{plan_id}/guests/{guest_id}/phones", addGuestPhoneHandler(d.Repo)).Methods(http.MethodPost)
	plans.HandleFunc("/{plan_id}/guests/{guest_id}/relationships", createRelationshipHandler(d.Repo)).Methods(http.MethodPost)
	plans.HandleFunc("/{plan_id}/guests/{guest_id}/relationships", listRelationshipsHandler(d.Repo)).Methods(http.MethodGet)

	plans.HandleFunc("/{plan_id}/tasks", createTaskHandler(d.Repo)).Methods(http.MethodPost)
	plans.HandleFunc("/{plan_id}/tasks", listTasksHandler(d.Repo)).Methods(http.MethodGet)
	plans.HandleFunc("/{plan_id}/tasks/{task_id}", updateTaskHandler(d.Repo)).Methods(http.MethodPut)

	cors := middleware.NewCORSMiddleware(d.Config.AllowedOrigins)
	return cors.Handler(r)
}

func healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":    "healthy",
			"service":   "planbook",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}
