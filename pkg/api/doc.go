// Package api exposes the session, provisioning, and billing workflows over
// HTTP.
//
// # Routes
//
// Public:
//
//	POST /api/v1/auth/signin            authenticate with email/password
//	POST /api/v1/auth/signout           end the session
//	POST /api/v1/auth/signup            provision a new account and workspace
//	GET  /api/v1/session                current session snapshot
//	GET  /api/v1/billing/plans          plan catalog with pricing
//
// Session-gated (401 without an authenticated session):
//
//	GET  /api/v1/org                          current organization
//	GET  /api/v1/access/{feature}             feature gate evaluation
//	POST /api/v1/billing/checkout/callback    apply a finished checkout
//	GET  /api/v1/billing/history              payment history
//
// Health and metrics endpoints are served separately on the health port; see
// pkg/observability.
package api
