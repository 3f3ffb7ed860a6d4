package identity

import "errors"

// AuthError is a provider rejection: bad credential, duplicate email, or a
// provider-side failure. Reason carries the provider's message unchanged.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	return "auth error: " + e.Reason
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// AsAuthError extracts an *AuthError from err's chain.
func AsAuthError(err error) (*AuthError, bool) {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
