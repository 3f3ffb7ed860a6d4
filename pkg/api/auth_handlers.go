package api

import (
	"errors"
	"net/http"

	"github.com/simterra/workspace/pkg/httputil"
	"github.com/simterra/workspace/pkg/identity"
	"github.com/simterra/workspace/pkg/provisioning"
)

// signIn authenticates with an email/password credential and returns the
// settled session snapshot.
func (s *Server) signIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Email, "email") {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Password, "password") {
		return
	}

	if err := s.deps.Sessions.SignIn(r.Context(), req.Email, req.Password); err != nil {
		if ae, ok := identity.AsAuthError(err); ok {
			httputil.WriteUnauthorized(w, ae.Reason)
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, s.deps.Sessions.Snapshot())
}

// signOut ends the session. Local state is always cleared; a remote
// revocation failure is logged but the sign-out still succeeds from the
// caller's point of view.
func (s *Server) signOut(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Sessions.SignOut(r.Context()); err != nil {
		s.deps.Logger.WithError(err).Warn("remote sign-out failed")
	}
	httputil.WriteNoContent(w)
}

// signUp provisions a new account: identity, organization, admin membership,
// and profile.
func (s *Server) signUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Email, "email") {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Password, "password") {
		return
	}
	if !httputil.RequireNonEmpty(w, req.OrganizationName, "organization_name") {
		return
	}

	result, err := s.deps.Provisioner.Provision(r.Context(), req.Email, req.Password, req.OrganizationName)
	if err != nil {
		var ice *provisioning.IdentityCreationError
		if errors.As(err, &ice) {
			if ae, ok := identity.AsAuthError(ice.Err); ok {
				httputil.WriteConflict(w, ae.Reason)
				return
			}
			httputil.WriteInternalError(w, err)
			return
		}
		// The identity exists but the workspace is incomplete; a sign-in
		// retries the remaining steps via Resume.
		s.deps.Logger.WithError(err).Error("provisioning incomplete")
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteCreated(w, SignUpResponse{
		Identity:     result.Identity,
		Organization: result.Organization,
	})
}
