package billing

import (
	"time"

	"github.com/simterra/workspace/pkg/entitlements"
)

// PaymentStatus represents the status of a payment record
type PaymentStatus string

const (
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
	PaymentStatusPending PaymentStatus = "pending"
)

// PaymentRecord is one row of an organization's payment history.
type PaymentRecord struct {
	ID              string        `json:"id"`
	OrganizationID  string        `json:"organization_id"`
	AmountCents     int64         `json:"amount_cents"`
	Currency        string        `json:"currency"`
	Status          PaymentStatus `json:"status"`
	Reference       string        `json:"reference"`
	TransactionDate time.Time     `json:"transaction_date"`
}

// Receipt describes an activation that committed: the plan now live on the
// organization and its subscription window.
type Receipt struct {
	OrganizationID string            `json:"organization_id"`
	Plan           entitlements.Plan `json:"plan"`
	Reference      string            `json:"reference"`
	Start          time.Time         `json:"subscription_start"`
	End            time.Time         `json:"subscription_end"`
}

// PlanPricing is the monthly price of a self-serve plan. SalesLed plans have
// no checkout path.
type PlanPricing struct {
	Plan            entitlements.Plan      `json:"plan"`
	Name            string                 `json:"name"`
	MonthlyPriceUSD int64                  `json:"monthly_price_usd,omitempty"`
	SalesLed        bool                   `json:"sales_led,omitempty"`
	Features        []entitlements.Feature `json:"features"`
}

// Pricing returns the plan catalog in ascending tier order.
func Pricing() []PlanPricing {
	return []PlanPricing{
		{
			Plan:            entitlements.PlanStarter,
			Name:            "Starter",
			MonthlyPriceUSD: 49,
			Features:        entitlements.AllowedFeatures(entitlements.PlanStarter),
		},
		{
			Plan:            entitlements.PlanGrowth,
			Name:            "Growth",
			MonthlyPriceUSD: 399,
			Features:        entitlements.AllowedFeatures(entitlements.PlanGrowth),
		},
		{
			Plan:     entitlements.PlanEnterprise,
			Name:     "Enterprise",
			SalesLed: true,
			Features: entitlements.AllowedFeatures(entitlements.PlanEnterprise),
		},
	}
}

// PriceCents returns the charge amount for a self-serve plan.
func PriceCents(plan entitlements.Plan) (int64, error) {
	switch plan {
	case entitlements.PlanStarter:
		return 4900, nil
	case entitlements.PlanGrowth:
		return 39900, nil
	case entitlements.PlanEnterprise:
		return 0, ErrSalesLedPlan
	default:
		return 0, ErrInvalidPlan
	}
}
