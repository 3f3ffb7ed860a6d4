// Package entitlements maps subscription plans to the features they unlock.
//
// The mapping is static and evaluation is pure: CheckAccess performs no I/O
// and returns synchronously, so callers can gate UI elements per request
// without waiting on storage. Organization resolution must already have
// happened; an unresolved or missing organization maps to PlanNone, which
// unlocks nothing.
package entitlements
