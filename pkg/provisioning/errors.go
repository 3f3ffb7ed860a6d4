package provisioning

// Each workflow step fails with its own error type so callers can tell how
// far the chain got. Only IdentityCreationError means nothing was created;
// the other three mean the identity exists and Resume will finish the rest.

// IdentityCreationError means the provider rejected the sign-up. No local
// records were written.
type IdentityCreationError struct {
	Err error
}

func (e *IdentityCreationError) Error() string {
	return "identity creation failed: " + e.Err.Error()
}

func (e *IdentityCreationError) Unwrap() error { return e.Err }

// OrganizationCreationError means the identity exists but the organization
// insert failed.
type OrganizationCreationError struct {
	IdentityID string
	Err        error
}

func (e *OrganizationCreationError) Error() string {
	return "organization creation failed for identity " + e.IdentityID + ": " + e.Err.Error()
}

func (e *OrganizationCreationError) Unwrap() error { return e.Err }

// MembershipCreationError means the organization exists but linking the
// identity to it failed.
type MembershipCreationError struct {
	IdentityID     string
	OrganizationID string
	Err            error
}

func (e *MembershipCreationError) Error() string {
	return "membership creation failed for identity " + e.IdentityID + ": " + e.Err.Error()
}

func (e *MembershipCreationError) Unwrap() error { return e.Err }

// ProfileCreationError means everything but the display profile succeeded.
// The account is usable; the profile is cosmetic.
type ProfileCreationError struct {
	IdentityID string
	Err        error
}

func (e *ProfileCreationError) Error() string {
	return "profile creation failed for identity " + e.IdentityID + ": " + e.Err.Error()
}

func (e *ProfileCreationError) Unwrap() error { return e.Err }
