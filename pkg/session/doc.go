// Package session holds the single source of truth for "who is signed in
// right now" and the organization that identity operates in.
//
// The store is a small state machine: Unresolved → Resolving →
// Authenticated | Anonymous, where either settled state can re-enter
// Resolving on a provider auth event. Restore, sign-in, and provider events
// all write through the same machine, and the last settling transition wins;
// each path independently re-derives truth from the provider rather than
// from the others, so the race between first-load restore and an early auth
// event is harmless.
//
// Two ordering guarantees matter:
//
//   - a sign-out clears cached organization state before any queued sign-in
//     is processed, so one identity's organization never leaks into the next
//     session; and
//   - an organization resolve in flight for an identity that has since
//     signed out is discarded rather than written back.
//
// Construct the store once at the composition root and Close it on app
// teardown; it is not a package-level singleton.
package session
