package billing

import (
	"context"

	"github.com/simterra/workspace/pkg/entitlements"
	"github.com/simterra/workspace/pkg/observability"
)

// CheckoutResult is what the payment gateway reports back after the customer
// finishes (or abandons) checkout.
type CheckoutResult struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

// Validate rejects results that cannot be applied. Only a successful result
// with a reference is actionable.
func (r CheckoutResult) Validate() error {
	if r.Reference == "" {
		return ErrMissingReference
	}
	if r.Status != string(PaymentStatusSuccess) {
		return ErrInvalidCheckoutStatus
	}
	return nil
}

// Coordinator binds gateway callbacks to the activation workflow: a verified
// success activates, a dismissal changes nothing.
type Coordinator struct {
	activation *Activation
	logger     *observability.Logger
}

// NewCoordinator creates a checkout coordinator.
func NewCoordinator(activation *Activation, logger *observability.Logger) *Coordinator {
	return &Coordinator{activation: activation, logger: logger}
}

// HandleSuccess validates the gateway result, checks the charged amount
// against the plan price, and activates. Errors from Activate pass through,
// including *PaymentRecordError for partial success.
func (c *Coordinator) HandleSuccess(ctx context.Context, organizationID string, plan entitlements.Plan, amountCents int64, result CheckoutResult) (*Receipt, error) {
	if err := result.Validate(); err != nil {
		return nil, err
	}
	price, err := PriceCents(plan)
	if err != nil {
		return nil, err
	}
	if amountCents != price {
		return nil, ErrAmountMismatch
	}
	return c.activation.Activate(ctx, organizationID, plan, amountCents, result.Reference)
}

// HandleClose records a dismissed checkout. The customer backing out is not a
// failure and no state changes.
func (c *Coordinator) HandleClose(organizationID string) {
	c.logger.WithField("organization_id", organizationID).Debug("checkout dismissed")
}
