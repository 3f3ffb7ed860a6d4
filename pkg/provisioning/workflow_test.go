package provisioning

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simterra/workspace/pkg/entitlements"
	"github.com/simterra/workspace/pkg/identity"
	"github.com/simterra/workspace/pkg/observability"
	"github.com/simterra/workspace/pkg/orgs"
)

type fakeProvider struct {
	signUpFunc func(ctx context.Context, email, password string) (*identity.Identity, error)
}

func (p *fakeProvider) GetSession(context.Context) (*identity.Session, error) { return nil, nil }

func (p *fakeProvider) SignInWithPassword(context.Context, string, string) (*identity.Session, error) {
	return nil, &identity.AuthError{Reason: "not configured"}
}

func (p *fakeProvider) SignUp(ctx context.Context, email, password string) (*identity.Identity, error) {
	return p.signUpFunc(ctx, email, password)
}

func (p *fakeProvider) SignOut(context.Context) error { return nil }

func (p *fakeProvider) OnAuthStateChange(identity.Handler) identity.Unsubscribe {
	return func() {}
}

type fakeStore struct {
	insertOrgFunc        func(ctx context.Context, org *orgs.Organization) error
	insertMembershipFunc func(ctx context.Context, m *orgs.Membership) error
	insertProfileFunc    func(ctx context.Context, p *orgs.Profile) error

	orgs        []*orgs.Organization
	memberships []*orgs.Membership
	profiles    []*orgs.Profile
}

func (s *fakeStore) InsertOrganization(ctx context.Context, org *orgs.Organization) error {
	if s.insertOrgFunc != nil {
		if err := s.insertOrgFunc(ctx, org); err != nil {
			return err
		}
	}
	s.orgs = append(s.orgs, org)
	return nil
}

func (s *fakeStore) InsertMembership(ctx context.Context, m *orgs.Membership) error {
	if s.insertMembershipFunc != nil {
		if err := s.insertMembershipFunc(ctx, m); err != nil {
			return err
		}
	}
	s.memberships = append(s.memberships, m)
	return nil
}

func (s *fakeStore) InsertProfile(ctx context.Context, p *orgs.Profile) error {
	if s.insertProfileFunc != nil {
		if err := s.insertProfileFunc(ctx, p); err != nil {
			return err
		}
	}
	s.profiles = append(s.profiles, p)
	return nil
}

type fakePrimer struct {
	primedID  string
	primedOrg *orgs.Organization
}

func (p *fakePrimer) Prime(_ context.Context, id identity.Identity, org *orgs.Organization) {
	p.primedID = id.ID
	p.primedOrg = org
}

var testNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

func newTestWorkflow(provider *fakeProvider, store *fakeStore, primer *fakePrimer) *Workflow {
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	var sessions SessionPrimer
	if primer != nil {
		sessions = primer
	}
	w := NewWorkflow(provider, store, sessions, logger, nil, testNamespace)
	w.now = func() time.Time {
		return time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	}
	return w
}

func TestProvisionSuccess(t *testing.T) {
	provider := &fakeProvider{
		signUpFunc: func(_ context.Context, email, _ string) (*identity.Identity, error) {
			return &identity.Identity{ID: "user-1", Email: email}, nil
		},
	}
	store := &fakeStore{}
	primer := &fakePrimer{}
	w := newTestWorkflow(provider, store, primer)

	result, err := w.Provision(context.Background(), "jordan@acme.co", "hunter2hunter2", "Acme Property Co")
	require.NoError(t, err)

	assert.Equal(t, "user-1", result.Identity.ID)
	require.NotNil(t, result.Organization)
	assert.Equal(t, "Acme Property Co", result.Organization.Name)
	assert.Equal(t, entitlements.PlanNone, result.Organization.Plan)
	assert.False(t, result.Organization.SubscriptionActive)

	require.Len(t, store.memberships, 1)
	assert.Equal(t, orgs.RoleAdmin, store.memberships[0].Role)
	assert.Equal(t, result.Organization.ID, store.memberships[0].OrganizationID)

	require.Len(t, store.profiles, 1)
	assert.Equal(t, "user-1", store.profiles[0].ID)
	assert.Equal(t, "jordan", store.profiles[0].Name, "display name is the email local part")
	assert.Equal(t, "Admin", store.profiles[0].RoleLabel)
	assert.Equal(t, "Acme Property Co", store.profiles[0].Organization)

	assert.Equal(t, "user-1", primer.primedID)
	assert.Equal(t, result.Organization.ID, primer.primedOrg.ID)
}

func TestProvisionDuplicateEmail(t *testing.T) {
	provider := &fakeProvider{
		signUpFunc: func(context.Context, string, string) (*identity.Identity, error) {
			return nil, &identity.AuthError{Reason: "email already registered"}
		},
	}
	store := &fakeStore{}
	w := newTestWorkflow(provider, store, nil)

	_, err := w.Provision(context.Background(), "jordan@acme.co", "pw", "Acme")

	var ice *IdentityCreationError
	require.ErrorAs(t, err, &ice)
	ae, ok := identity.AsAuthError(ice.Err)
	require.True(t, ok)
	assert.Equal(t, "email already registered", ae.Reason)

	assert.Empty(t, store.orgs, "no local writes when identity creation fails")
	assert.Empty(t, store.memberships)
	assert.Empty(t, store.profiles)
}

func TestProvisionStepFailures(t *testing.T) {
	provider := &fakeProvider{
		signUpFunc: func(_ context.Context, email, _ string) (*identity.Identity, error) {
			return &identity.Identity{ID: "user-1", Email: email}, nil
		},
	}
	boom := errors.New("connection reset")

	t.Run("organization", func(t *testing.T) {
		store := &fakeStore{
			insertOrgFunc: func(context.Context, *orgs.Organization) error { return boom },
		}
		_, err := newTestWorkflow(provider, store, nil).Provision(context.Background(), "a@b.co", "pw", "Acme")

		var oce *OrganizationCreationError
		require.ErrorAs(t, err, &oce)
		assert.Equal(t, "user-1", oce.IdentityID)
		assert.ErrorIs(t, err, boom)
		assert.Empty(t, store.memberships, "chain stops at the failed step")
	})

	t.Run("membership", func(t *testing.T) {
		store := &fakeStore{
			insertMembershipFunc: func(context.Context, *orgs.Membership) error { return boom },
		}
		_, err := newTestWorkflow(provider, store, nil).Provision(context.Background(), "a@b.co", "pw", "Acme")

		var mce *MembershipCreationError
		require.ErrorAs(t, err, &mce)
		assert.NotEmpty(t, mce.OrganizationID)
		assert.Empty(t, store.profiles)
	})

	t.Run("profile", func(t *testing.T) {
		store := &fakeStore{
			insertProfileFunc: func(context.Context, *orgs.Profile) error { return boom },
		}
		_, err := newTestWorkflow(provider, store, nil).Provision(context.Background(), "a@b.co", "pw", "Acme")

		var pce *ProfileCreationError
		require.ErrorAs(t, err, &pce)
		assert.Len(t, store.memberships, 1, "earlier steps committed")
	})
}

func TestResumeConvergesOnSameRecords(t *testing.T) {
	provider := &fakeProvider{
		signUpFunc: func(_ context.Context, email, _ string) (*identity.Identity, error) {
			return &identity.Identity{ID: "user-1", Email: email}, nil
		},
	}

	failing := &fakeStore{
		insertProfileFunc: func(context.Context, *orgs.Profile) error {
			return errors.New("timeout")
		},
	}
	w := newTestWorkflow(provider, failing, nil)
	_, err := w.Provision(context.Background(), "jordan@acme.co", "pw", "Acme")
	var pce *ProfileCreationError
	require.ErrorAs(t, err, &pce)

	// Retry against a healthy store writes the same organization id.
	healthy := &fakeStore{}
	w2 := newTestWorkflow(provider, healthy, nil)
	result, err := w2.Resume(context.Background(), identity.Identity{ID: "user-1", Email: "jordan@acme.co"}, "Acme")
	require.NoError(t, err)

	assert.Equal(t, failing.orgs[0].ID, result.Organization.ID)
	require.Len(t, healthy.profiles, 1)
	assert.Equal(t, "jordan", healthy.profiles[0].Name)
}

func TestOrganizationIDDeterministic(t *testing.T) {
	w := newTestWorkflow(&fakeProvider{}, &fakeStore{}, nil)

	assert.Equal(t, w.OrganizationID("user-1"), w.OrganizationID("user-1"))
	assert.NotEqual(t, w.OrganizationID("user-1"), w.OrganizationID("user-2"))
	_, err := uuid.Parse(w.OrganizationID("user-1"))
	assert.NoError(t, err)
}
