package api

import (
	"github.com/simterra/workspace/pkg/entitlements"
	"github.com/simterra/workspace/pkg/identity"
	"github.com/simterra/workspace/pkg/orgs"
)

// SignInRequest is the body of POST /api/v1/auth/signin
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUpRequest is the body of POST /api/v1/auth/signup
type SignUpRequest struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	OrganizationName string `json:"organization_name"`
}

// SignUpResponse is the body of a successful sign-up
type SignUpResponse struct {
	Identity     identity.Identity  `json:"identity"`
	Organization *orgs.Organization `json:"organization"`
}

// AccessResponse is the body of GET /api/v1/access/{feature}
type AccessResponse struct {
	Feature entitlements.Feature `json:"feature"`
	Allowed bool                 `json:"allowed"`
}

// CheckoutCallbackRequest is the body of POST /api/v1/billing/checkout/callback.
// Status and Reference come from the payment gateway; Plan and AmountCents
// are what the customer checked out for.
type CheckoutCallbackRequest struct {
	Plan        entitlements.Plan `json:"plan"`
	AmountCents int64             `json:"amount_cents"`
	Reference   string            `json:"reference"`
	Status      string            `json:"status"`
}

// CheckoutCallbackResponse reports what the callback did.
type CheckoutCallbackResponse struct {
	Applied bool   `json:"applied"`
	Message string `json:"message,omitempty"`
}
