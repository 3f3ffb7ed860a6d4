// Package middleware provides HTTP middleware for request logging and
// session gating.
//
// # Overview
//
// This package implements request processing middleware: request-id tagging,
// structured access logging with panic recovery, and a session gate that
// rejects requests without an authenticated session.
//
// # Middleware Components
//
// Logging: request id, access log, panic recovery
//
//	router.Use(middleware.Logging(logger, metrics))
//
// RequireSession: reject anonymous requests
//
//	protected.Use(middleware.RequireSession(sessionStore))
//	// Handlers read the snapshot with middleware.SessionFromContext(ctx)
//
// # Related Packages
//
//   - pkg/session: Session state machine
//   - pkg/observability: Logger and metrics
package middleware
