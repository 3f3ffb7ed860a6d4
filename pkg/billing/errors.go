package billing

import "errors"

var (
	// ErrInvalidPlan means the requested plan is not purchasable.
	ErrInvalidPlan = errors.New("invalid plan")

	// ErrSalesLedPlan means the plan has no self-serve checkout path.
	ErrSalesLedPlan = errors.New("plan is sales-led; contact sales")

	// ErrMissingReference means the checkout result carried no payment
	// reference, so the payment cannot be verified or recorded.
	ErrMissingReference = errors.New("checkout result missing payment reference")

	// ErrAmountMismatch means the charged amount does not match the plan
	// price.
	ErrAmountMismatch = errors.New("charged amount does not match plan price")

	// ErrInvalidCheckoutStatus means the gateway reported a non-success
	// outcome; nothing is applied.
	ErrInvalidCheckoutStatus = errors.New("checkout did not report success")
)

// PaymentRecordError reports a partial activation: the organization's plan and
// subscription window committed, but appending the payment history row failed.
// The subscription is live. Callers must not re-run the activation; the
// reference identifies the unrecorded payment for reconciliation.
type PaymentRecordError struct {
	OrganizationID string
	Reference      string
	Err            error
}

func (e *PaymentRecordError) Error() string {
	return "payment " + e.Reference + " for organization " + e.OrganizationID +
		" applied but not recorded: " + e.Err.Error()
}

func (e *PaymentRecordError) Unwrap() error { return e.Err }

// IsPartialSuccess reports whether err is a PaymentRecordError, meaning the
// subscription activated even though the call returned an error.
func IsPartialSuccess(err error) bool {
	var pre *PaymentRecordError
	return errors.As(err, &pre)
}
