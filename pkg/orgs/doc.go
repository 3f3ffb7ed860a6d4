// Package orgs models organizations, memberships, and profiles, and resolves
// the single organization a session operates in.
//
// An identity maps to exactly one organization per session: the resolver
// takes the first membership by storage insertion order, a deliberate
// simplification rather than a storage constraint. A freshly created identity
// with no membership yet resolves to ErrNoOrganization, which is a valid
// terminal state and not a failure; transient storage problems surface as
// *LookupError, which callers should treat as retryable.
package orgs
