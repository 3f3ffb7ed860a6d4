// Package identity defines the contract with the external identity provider.
//
// The provider owns accounts and credentials; this package only describes how
// the rest of the system consumes it: session lookup, password sign-in,
// sign-up, sign-out, and asynchronous auth-state notifications. Provider
// failures surface as AuthError values carrying the provider's own reason
// string unchanged.
//
// OIDCProvider is a concrete implementation over an OIDC issuer with a
// password grant and an optional registration endpoint. Tests and offline
// callers can supply any other Provider implementation.
package identity
