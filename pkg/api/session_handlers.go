package api

import (
	"net/http"

	"github.com/simterra/workspace/pkg/entitlements"
	"github.com/simterra/workspace/pkg/httputil"
	"github.com/simterra/workspace/pkg/middleware"
)

// getSession returns the current session snapshot. Public: an anonymous
// snapshot is a valid answer.
func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, s.deps.Sessions.Snapshot())
}

// getOrganization returns the session's organization, or 404 when the
// identity has none yet.
func (s *Server) getOrganization(w http.ResponseWriter, r *http.Request) {
	snap, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}
	if snap.Organization == nil {
		httputil.WriteNotFoundError(w, "no organization for this session")
		return
	}
	httputil.WriteSuccess(w, snap.Organization)
}

// checkAccess evaluates a feature gate against the session's organization.
// Unknown feature names are evaluated, not rejected; the entitlement table
// decides what they mean per plan.
func (s *Server) checkAccess(w http.ResponseWriter, r *http.Request) {
	feature, ok := httputil.ParsePathStringOrError(w, r, "feature")
	if !ok {
		return
	}

	httputil.WriteSuccess(w, AccessResponse{
		Feature: entitlements.Feature(feature),
		Allowed: s.deps.Sessions.CheckAccess(entitlements.Feature(feature)),
	})
}
