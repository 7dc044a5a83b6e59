// Package httpapi exposes the REST surface: account registration and login,
// event CRUD and the registration operations, plus health and metrics
// endpoints.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"gatherly.org/internal/auth"
	"gatherly.org/internal/event"
	"gatherly.org/internal/obs"
)

// API bundles the services behind the HTTP handlers.
type API struct {
	Auth   *auth.Service
	Events *event.Service

	// Version and Commit feed the info endpoint.
	Version string
	Commit  string

	// Ready reports readiness of backing stores; nil means always ready.
	Ready func() error

	startedAt time.Time
}

// NewAPI wires the services into a handler set.
func NewAPI(authSvc *auth.Service, eventSvc *event.Service) *API {
	return &API{
		Auth:      authSvc,
		Events:    eventSvc,
		startedAt: time.Now().UTC(),
	}
}

// Router builds the chi router with the full middleware chain. The rate
// limiter is shared across requests; pass nil to disable limiting.
func (a *API) Router(limiter *RateLimiter) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(LoggingJSON)
	r.Use(obs.Instrument)
	r.Use(SecurityHeaders)
	r.Use(CORS)
	r.Use(MaxBodyBytes(1 << 20))
	if limiter != nil {
		r.Use(limiter.Middleware)
	}

	r.Get("/healthz", a.handleHealth)
	r.Get("/readyz", a.handleReady)
	r.Get("/api/info", a.handleInfo)
	r.Method(http.MethodGet, "/metrics", obs.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/users/register", a.handleRegister)
		r.Post("/users/login", a.handleLogin)

		// All event routes, reads included, require a bearer token.
		r.Group(func(r chi.Router) {
			r.Use(a.Authenticate)
			r.Get("/events", a.handleListEvents)
			r.Get("/events/{id}", a.handleGetEvent)
			r.Post("/events", a.handleCreateEvent)
			r.Put("/events/{id}", a.handleUpdateEvent)
			r.Delete("/events/{id}", a.handleDeleteEvent)
			r.Post("/events/{id}/register", a.handleRegisterForEvent)
			r.Delete("/events/{id}/register", a.handleCancelRegistration)
			r.Get("/events/{id}/registrations", a.handleListRegistrations)
			r.Get("/events/{id}/registration-status", a.handleRegistrationStatus)
		})
	})

	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)
	return r
}
