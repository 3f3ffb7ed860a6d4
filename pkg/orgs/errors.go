package orgs

import "errors"

// ErrNoOrganization means the identity has no membership yet. This is a valid
// state for a freshly created identity awaiting provisioning, not a failure.
var ErrNoOrganization = errors.New("identity has no organization")

// LookupError is a transient storage failure during resolution. Callers may
// retry; contrast with ErrNoOrganization which is terminal-for-now.
type LookupError struct {
	Op  string
	Err error
}

func (e *LookupError) Error() string {
	return "lookup failed during " + e.Op + ": " + e.Err.Error()
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a transient lookup failure.
func IsRetryable(err error) bool {
	var le *LookupError
	return errors.As(err, &le)
}
