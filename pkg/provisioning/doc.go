// Package provisioning creates a complete account: a provider identity, an
// organization, an admin membership, and a display profile.
//
// The chain is not transactional, because the identity lives in the external
// provider and the rest lives in postgres. Instead every storage step is
// idempotent: record ids are derived deterministically from the identity id,
// and the storage layer treats an already-present row as success. A failure
// partway through surfaces as a typed step error and the whole workflow (or
// Resume, once the identity exists) can be re-run safely until it completes.
package provisioning
