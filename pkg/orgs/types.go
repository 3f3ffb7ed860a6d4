package orgs

import (
	"time"

	"github.com/simterra/workspace/pkg/entitlements"
)

// Role represents a membership role within an organization
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Organization is a billable workspace owning a plan and subscription window.
type Organization struct {
	ID                 string             `json:"id"`
	Name               string             `json:"name"`
	Plan               entitlements.Plan  `json:"plan"`
	SubscriptionActive bool               `json:"subscription_active"`
	SubscriptionStart  *time.Time         `json:"subscription_start_date,omitempty"`
	SubscriptionEnd    *time.Time         `json:"subscription_end_date,omitempty"`
	PaymentReference   string             `json:"payment_reference,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// Membership links an identity to an organization with a role.
type Membership struct {
	IdentityID     string    `json:"identity_id"`
	OrganizationID string    `json:"organization_id"`
	Role           Role      `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
}

// Profile is a denormalized display snapshot keyed by identity id. It is not
// authoritative for entitlement decisions.
type Profile struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	RoleLabel    string    `json:"role"`
	Organization string    `json:"organization"`
	CreatedAt    time.Time `json:"created_at"`
}
