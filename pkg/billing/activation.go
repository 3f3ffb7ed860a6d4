package billing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/simterra/workspace/pkg/entitlements"
	"github.com/simterra/workspace/pkg/observability"
)

// SubscriptionUpdate is the organization-side state an activation commits.
type SubscriptionUpdate struct {
	OrganizationID string
	Plan           entitlements.Plan
	Active         bool
	Start          time.Time
	End            time.Time
	Reference      string
}

// Store is the persistence surface for activation and payment history.
type Store interface {
	UpdateOrganizationSubscription(ctx context.Context, u SubscriptionUpdate) error
	AppendPaymentRecord(ctx context.Context, rec *PaymentRecord) error
	ListPaymentRecords(ctx context.Context, organizationID string) ([]PaymentRecord, error)
}

// Activation applies verified payments to organizations.
type Activation struct {
	store   Store
	logger  *observability.Logger
	metrics *observability.Metrics // optional
	now     func() time.Time
}

// NewActivation creates an activation workflow. metrics may be nil.
func NewActivation(store Store, logger *observability.Logger, metrics *observability.Metrics) *Activation {
	return &Activation{
		store:   store,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// Activate commits a verified payment: the organization's plan flips and its
// subscription window opens for one calendar month starting now, then the
// payment is appended to the history.
//
// The organization update is the authoritative write. If the history append
// fails afterwards, Activate returns the receipt together with a
// *PaymentRecordError: the subscription is live and the caller must not
// re-apply the payment.
func (a *Activation) Activate(ctx context.Context, organizationID string, plan entitlements.Plan, amountCents int64, reference string) (*Receipt, error) {
	if plan == entitlements.PlanNone || !plan.Valid() {
		a.countActivation("invalid")
		return nil, ErrInvalidPlan
	}
	if reference == "" {
		a.countActivation("invalid")
		return nil, ErrMissingReference
	}

	start := a.now().UTC()
	end := start.AddDate(0, 1, 0)

	update := SubscriptionUpdate{
		OrganizationID: organizationID,
		Plan:           plan,
		Active:         true,
		Start:          start,
		End:            end,
		Reference:      reference,
	}
	if err := a.store.UpdateOrganizationSubscription(ctx, update); err != nil {
		a.countActivation("update_failed")
		return nil, err
	}

	receipt := &Receipt{
		OrganizationID: organizationID,
		Plan:           plan,
		Reference:      reference,
		Start:          start,
		End:            end,
	}

	record := &PaymentRecord{
		ID:              uuid.NewString(),
		OrganizationID:  organizationID,
		AmountCents:     amountCents,
		Currency:        "USD",
		Status:          PaymentStatusSuccess,
		Reference:       reference,
		TransactionDate: start,
	}
	if err := a.store.AppendPaymentRecord(ctx, record); err != nil {
		a.countActivation("record_failed")
		if a.metrics != nil {
			a.metrics.PaymentRecordFailuresTotal.Inc()
		}
		a.logger.WithError(err).WithFields(map[string]interface{}{
			"organization_id": organizationID,
			"reference":       reference,
		}).Error("payment applied but history append failed")
		return receipt, &PaymentRecordError{
			OrganizationID: organizationID,
			Reference:      reference,
			Err:            err,
		}
	}

	a.countActivation("success")
	a.logger.WithFields(map[string]interface{}{
		"organization_id": organizationID,
		"plan":            string(plan),
		"reference":       reference,
	}).Info("subscription activated")

	return receipt, nil
}

// History returns the organization's payment records, newest first.
func (a *Activation) History(ctx context.Context, organizationID string) ([]PaymentRecord, error) {
	return a.store.ListPaymentRecords(ctx, organizationID)
}

func (a *Activation) countActivation(outcome string) {
	if a.metrics != nil {
		a.metrics.ActivationsTotal.WithLabelValues(outcome).Inc()
	}
}
