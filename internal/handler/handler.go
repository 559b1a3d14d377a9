// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/MariferVL/eventhub/internal/model"
	"github.com/MariferVL/eventhub/internal/service"
	"github.com/MariferVL/eventhub/internal/token"
)

// validate checks the `validate` tags on request payloads. A single
// instance caches struct metadata across requests.
var validate = validator.New()

// RouterConfig carries everything the router needs wired in.
type RouterConfig struct {
	Logger       *slog.Logger
	Auth         *service.AuthService
	Events       *service.EventService
	Reservations *service.ReservationService
	Users        *service.UserService
	Tokens       *token.Manager
	Metrics      http.Handler
}

// NewRouter assembles the full HTTP surface.
func NewRouter(cfg RouterConfig) *chi.Mux {
	authH := &AuthHandler{auth: cfg.Auth}
	eventH := &EventHandler{events: cfg.Events}
	resH := &ReservationHandler{reservations: cfg.Reservations}
	userH := &UserHandler{users: cfg.Users}

	r := chi.NewRouter()

	// Global middleware stack.
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(AccessLog(cfg.Logger))   // structured access log
	r.Use(CORS)

	// Per-IP limit across the whole API, plus a much stricter bucket on
	// the credential endpoints.
	globalLimiter := NewRateLimiter(LimiterConfig{RPS: 20, Burst: 40, IdleTTL: 3 * time.Minute})
	r.Use(globalLimiter.Middleware(func(r *http.Request) string { return "ip:" + r.RemoteAddr }))
	authLimiter := NewRateLimiter(LimiterConfig{RPS: 1, Burst: 5, IdleTTL: 10 * time.Minute})

	r.Get("/health", HealthCheck)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Route("/auth", func(r chi.Router) {
		r.With(authLimiter.Middleware(func(r *http.Request) string { return "auth:" + r.RemoteAddr })).
			Post("/register", authH.Register)
		r.With(authLimiter.Middleware(func(r *http.Request) string { return "auth:" + r.RemoteAddr })).
			Post("/login", authH.Login)
		r.Post("/refresh", authH.Refresh)
		r.Post("/logout", authH.Logout)
	})

	r.Route("/events", func(r chi.Router) {
		r.Get("/", eventH.List)
		r.Get("/{id}", eventH.Get)

		r.Group(func(r chi.Router) {
			r.Use(Authenticate(cfg.Tokens))
			r.Use(RequireRole(model.RoleOrganizer))
			r.Post("/", eventH.Create)
			r.Put("/{id}", eventH.Update)
			r.Delete("/{id}", eventH.Delete)
		})
	})

	r.Route("/reservations", func(r chi.Router) {
		r.Use(Authenticate(cfg.Tokens))
		r.Post("/", resH.Reserve)
		r.Get("/", resH.ListMine)
		r.Delete("/{id}", resH.Cancel)
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(Authenticate(cfg.Tokens))
		r.Get("/me", userH.Me)
		r.Put("/me", userH.UpdateMe)
	})

	return r
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

// decodeJSON decodes and validates a request payload. Unknown fields and
// bodies over 1 MB are rejected before the payload reaches any service.
func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return validate.Struct(dst)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
