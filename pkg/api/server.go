package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/simterra/workspace/pkg/billing"
	"github.com/simterra/workspace/pkg/middleware"
	"github.com/simterra/workspace/pkg/observability"
	"github.com/simterra/workspace/pkg/provisioning"
	"github.com/simterra/workspace/pkg/session"
)

// Deps are the collaborators the server exposes over HTTP.
type Deps struct {
	Sessions    *session.Store
	Provisioner *provisioning.Workflow
	Billing     *billing.Activation
	Checkout    *billing.Coordinator
	Logger      *observability.Logger
	Metrics     *observability.Metrics // optional
}

// Server is the HTTP API server
type Server struct {
	router *mux.Router
	deps   Deps
}

// NewServer creates a new API server
func NewServer(deps Deps) *Server {
	s := &Server{
		router: mux.NewRouter(),
		deps:   deps,
	}
	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	s.router.Use(middleware.Logging(s.deps.Logger, s.deps.Metrics))

	// Public routes
	s.handle("/api/v1/auth/signin", s.signIn, http.MethodPost)
	s.handle("/api/v1/auth/signout", s.signOut, http.MethodPost)
	s.handle("/api/v1/auth/signup", s.signUp, http.MethodPost)
	s.handle("/api/v1/session", s.getSession, http.MethodGet)
	s.handle("/api/v1/billing/plans", s.listPlans, http.MethodGet)

	// Session-gated routes
	protected := s.router.PathPrefix("/api/v1").Subrouter()
	protected.Use(middleware.RequireSession(s.deps.Sessions))
	s.handleOn(protected, "/api/v1/org", "/org", s.getOrganization, http.MethodGet)
	s.handleOn(protected, "/api/v1/access/{feature}", "/access/{feature}", s.checkAccess, http.MethodGet)
	s.handleOn(protected, "/api/v1/billing/checkout/callback", "/billing/checkout/callback", s.checkoutCallback, http.MethodPost)
	s.handleOn(protected, "/api/v1/billing/history", "/billing/history", s.paymentHistory, http.MethodGet)
}

// handle registers a route on the root router with metrics instrumentation.
func (s *Server) handle(path string, h http.HandlerFunc, methods ...string) {
	s.router.Handle(path, s.instrument(path, h)).Methods(methods...)
}

// handleOn registers a route on a subrouter; template is the full path used
// as the metrics label, pattern the subrouter-relative pattern.
func (s *Server) handleOn(router *mux.Router, template, pattern string, h http.HandlerFunc, methods ...string) {
	router.Handle(pattern, s.instrument(template, h)).Methods(methods...)
}

func (s *Server) instrument(path string, h http.Handler) http.Handler {
	if s.deps.Metrics == nil {
		return h
	}
	return s.deps.Metrics.InstrumentHandler(path, h)
}
