// Package billing activates subscriptions from verified checkout results and
// keeps the payment history.
//
// Activation is two writes in a deliberate order: the organization's plan and
// subscription window commit first, the payment history row second. A failure
// on the second write is a partial success reported as *PaymentRecordError —
// the subscription is live, the payment is simply unrecorded, and callers
// must not re-apply it.
package billing
