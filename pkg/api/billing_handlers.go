package api

import (
	"net/http"

	"github.com/simterra/workspace/pkg/billing"
	"github.com/simterra/workspace/pkg/httputil"
	"github.com/simterra/workspace/pkg/middleware"
)

// listPlans returns the plan catalog with pricing and feature lists.
func (s *Server) listPlans(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, billing.Pricing())
}

// checkoutCallback applies a finished checkout to the session's
// organization. A dismissed checkout is acknowledged without touching
// anything. A verified success activates the subscription and refreshes the
// session so the new plan takes effect immediately.
func (s *Server) checkoutCallback(w http.ResponseWriter, r *http.Request) {
	snap, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}
	if snap.Organization == nil {
		httputil.WriteNotFoundError(w, "no organization for this session")
		return
	}

	var req CheckoutCallbackRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	result := billing.CheckoutResult{Reference: req.Reference, Status: req.Status}

	// The customer backing out of checkout is not a failure.
	if req.Status != string(billing.PaymentStatusSuccess) {
		s.deps.Checkout.HandleClose(snap.Organization.ID)
		httputil.WriteSuccess(w, CheckoutCallbackResponse{Applied: false, Message: "checkout dismissed"})
		return
	}

	receipt, err := s.deps.Checkout.HandleSuccess(r.Context(), snap.Organization.ID, req.Plan, req.AmountCents, result)
	if err != nil {
		if billing.IsPartialSuccess(err) {
			// The subscription is live; only the history row is missing.
			// Refresh so the session serves the new plan, then tell the
			// caller not to retry the payment.
			if rerr := s.deps.Sessions.RefreshOrganization(r.Context()); rerr != nil {
				s.deps.Logger.WithError(rerr).Warn("organization refresh failed after activation")
			}
			httputil.WriteErrorMessage(w, http.StatusInternalServerError,
				"payment applied but not recorded; do not retry, contact support with reference "+req.Reference)
			return
		}
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	if err := s.deps.Sessions.RefreshOrganization(r.Context()); err != nil {
		s.deps.Logger.WithError(err).Warn("organization refresh failed after activation")
	}

	httputil.WriteSuccess(w, receipt)
}

// paymentHistory returns the organization's payment records, newest first.
func (s *Server) paymentHistory(w http.ResponseWriter, r *http.Request) {
	snap, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}
	if snap.Organization == nil {
		httputil.WriteNotFoundError(w, "no organization for this session")
		return
	}

	records, err := s.deps.Billing.History(r.Context(), snap.Organization.ID)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if records == nil {
		records = []billing.PaymentRecord{}
	}
	httputil.WriteSuccess(w, records)
}
