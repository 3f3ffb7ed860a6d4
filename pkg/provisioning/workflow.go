package provisioning

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/simterra/workspace/pkg/entitlements"
	"github.com/simterra/workspace/pkg/identity"
	"github.com/simterra/workspace/pkg/observability"
	"github.com/simterra/workspace/pkg/orgs"
)

// Store is the persistence surface the workflow needs. Inserts must be
// idempotent: re-inserting an existing row is success, not a conflict.
type Store interface {
	InsertOrganization(ctx context.Context, org *orgs.Organization) error
	InsertMembership(ctx context.Context, m *orgs.Membership) error
	InsertProfile(ctx context.Context, p *orgs.Profile) error
}

// SessionPrimer installs a freshly provisioned identity into the live
// session. Satisfied by *session.Store.
type SessionPrimer interface {
	Prime(ctx context.Context, id identity.Identity, org *orgs.Organization)
}

// Result is the outcome of a completed provisioning run.
type Result struct {
	Identity     identity.Identity  `json:"identity"`
	Organization *orgs.Organization `json:"organization"`
}

// Workflow provisions new accounts. The namespace seeds deterministic record
// ids so a re-run for the same identity converges on the same rows.
type Workflow struct {
	provider  identity.Provider
	store     Store
	sessions  SessionPrimer // optional
	logger    *observability.Logger
	metrics   *observability.Metrics // optional
	namespace uuid.UUID
	now       func() time.Time
}

// NewWorkflow creates a provisioning workflow. sessions and metrics may be
// nil.
func NewWorkflow(provider identity.Provider, store Store, sessions SessionPrimer, logger *observability.Logger, metrics *observability.Metrics, namespace uuid.UUID) *Workflow {
	return &Workflow{
		provider:  provider,
		store:     store,
		sessions:  sessions,
		logger:    logger,
		metrics:   metrics,
		namespace: namespace,
		now:       time.Now,
	}
}

// Provision runs the full chain: provider sign-up, then organization,
// membership, and profile. On success the live session, if wired, is primed
// with the new identity so the caller sees an authenticated session with its
// organization already attached.
func (w *Workflow) Provision(ctx context.Context, email, credential, orgName string) (*Result, error) {
	id, err := w.provider.SignUp(ctx, email, credential)
	if err != nil {
		w.countStep("identity", "failure")
		return nil, &IdentityCreationError{Err: err}
	}
	w.countStep("identity", "success")

	org, err := w.createWorkspace(ctx, *id, orgName)
	if err != nil {
		return nil, err
	}

	if w.sessions != nil {
		w.sessions.Prime(ctx, *id, org)
	}
	w.logger.WithFields(map[string]interface{}{
		"identity_id":     id.ID,
		"organization_id": org.ID,
	}).Info("account provisioned")

	return &Result{Identity: *id, Organization: org}, nil
}

// Resume finishes provisioning for an identity that already exists, after a
// partial failure left it without a complete workspace. Every step is safe to
// repeat.
func (w *Workflow) Resume(ctx context.Context, id identity.Identity, orgName string) (*Result, error) {
	org, err := w.createWorkspace(ctx, id, orgName)
	if err != nil {
		return nil, err
	}
	return &Result{Identity: id, Organization: org}, nil
}

// createWorkspace writes the organization, membership, and profile rows.
// Deterministic ids keyed on the identity id make each insert a no-op when
// the row already exists.
func (w *Workflow) createWorkspace(ctx context.Context, id identity.Identity, orgName string) (*orgs.Organization, error) {
	now := w.now().UTC()

	org := &orgs.Organization{
		ID:        w.OrganizationID(id.ID),
		Name:      orgName,
		Plan:      entitlements.PlanNone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := w.store.InsertOrganization(ctx, org); err != nil {
		w.countStep("organization", "failure")
		return nil, &OrganizationCreationError{IdentityID: id.ID, Err: err}
	}
	w.countStep("organization", "success")

	membership := &orgs.Membership{
		IdentityID:     id.ID,
		OrganizationID: org.ID,
		Role:           orgs.RoleAdmin,
		CreatedAt:      now,
	}
	if err := w.store.InsertMembership(ctx, membership); err != nil {
		w.countStep("membership", "failure")
		return nil, &MembershipCreationError{IdentityID: id.ID, OrganizationID: org.ID, Err: err}
	}
	w.countStep("membership", "success")

	profile := &orgs.Profile{
		ID:           id.ID,
		Name:         displayName(id.Email),
		RoleLabel:    "Admin",
		Organization: orgName,
		CreatedAt:    now,
	}
	if err := w.store.InsertProfile(ctx, profile); err != nil {
		w.countStep("profile", "failure")
		return nil, &ProfileCreationError{IdentityID: id.ID, Err: err}
	}
	w.countStep("profile", "success")

	return org, nil
}

// OrganizationID derives the deterministic organization id for an identity.
func (w *Workflow) OrganizationID(identityID string) string {
	return uuid.NewSHA1(w.namespace, []byte("org:"+identityID)).String()
}

// displayName is the email local part, matching what the identity provider
// shows before the user sets a real name.
func displayName(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}

func (w *Workflow) countStep(step, outcome string) {
	if w.metrics != nil {
		w.metrics.ProvisioningStepsTotal.WithLabelValues(step, outcome).Inc()
	}
}
