package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simterra/workspace/pkg/billing"
	"github.com/simterra/workspace/pkg/entitlements"
	"github.com/simterra/workspace/pkg/orgs"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db), mock
}

func TestInsertOrganizationIdempotent(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	org := &orgs.Organization{
		ID: "org-1", Name: "Acme", Plan: entitlements.PlanNone,
		CreatedAt: now, UpdatedAt: now,
	}

	// The conflict clause makes a duplicate insert report zero rows, which is
	// still success.
	mock.ExpectExec("INSERT INTO organizations").
		WithArgs("org-1", "Acme", entitlements.PlanNone, false, now, now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.InsertOrganization(context.Background(), org))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertMembershipAndProfile(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectExec("INSERT INTO user_organizations").
		WithArgs("user-1", "org-1", orgs.RoleAdmin, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO user_profiles").
		WithArgs("user-1", "jordan", "Admin", "Acme", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.InsertMembership(context.Background(), &orgs.Membership{
		IdentityID: "user-1", OrganizationID: "org-1", Role: orgs.RoleAdmin, CreatedAt: now,
	}))
	require.NoError(t, store.InsertProfile(context.Background(), &orgs.Profile{
		ID: "user-1", Name: "jordan", RoleLabel: "Admin", Organization: "Acme", CreatedAt: now,
	}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFirstMembership(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM user_organizations").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"identity_id", "organization_id", "role", "created_at"}).
			AddRow("user-1", "org-1", "admin", now))

	m, err := store.FirstMembership(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "org-1", m.OrganizationID)
	assert.Equal(t, orgs.RoleAdmin, m.Role)
}

func TestFirstMembershipNone(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM user_organizations").
		WithArgs("user-none").
		WillReturnRows(sqlmock.NewRows([]string{"identity_id", "organization_id", "role", "created_at"}))

	m, err := store.FirstMembership(context.Background(), "user-none")
	require.NoError(t, err, "zero memberships is not a storage error")
	assert.Nil(t, m)
}

func TestGetOrganization(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()
	end := now.AddDate(0, 1, 0)

	mock.ExpectQuery("SELECT (.+) FROM organizations").
		WithArgs("org-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "plan", "subscription_active", "subscription_start_date",
			"subscription_end_date", "payment_reference", "created_at", "updated_at",
		}).AddRow("org-1", "Acme", "growth", true, now, end, "ps_ref", now, now))

	org, err := store.GetOrganization(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Equal(t, entitlements.PlanGrowth, org.Plan)
	assert.True(t, org.SubscriptionActive)
	assert.Equal(t, "ps_ref", org.PaymentReference)
	require.NotNil(t, org.SubscriptionEnd)
}

func TestGetOrganizationNullReference(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM organizations").
		WithArgs("org-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "plan", "subscription_active", "subscription_start_date",
			"subscription_end_date", "payment_reference", "created_at", "updated_at",
		}).AddRow("org-1", "Acme", "none", false, nil, nil, nil, now, now))

	org, err := store.GetOrganization(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Empty(t, org.PaymentReference)
	assert.Nil(t, org.SubscriptionStart)
	assert.Nil(t, org.SubscriptionEnd)
}

func TestUpdateOrganizationSubscription(t *testing.T) {
	store, mock := newMockStore(t)
	start := time.Now().UTC()
	end := start.AddDate(0, 1, 0)

	mock.ExpectExec("UPDATE organizations").
		WithArgs("org-1", entitlements.PlanGrowth, true, start, end, "ps_ref").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.UpdateOrganizationSubscription(context.Background(), billing.SubscriptionUpdate{
		OrganizationID: "org-1", Plan: entitlements.PlanGrowth, Active: true,
		Start: start, End: end, Reference: "ps_ref",
	})
	require.NoError(t, err)
}

func TestUpdateOrganizationSubscriptionMissingOrg(t *testing.T) {
	store, mock := newMockStore(t)
	start := time.Now().UTC()

	mock.ExpectExec("UPDATE organizations").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.UpdateOrganizationSubscription(context.Background(), billing.SubscriptionUpdate{
		OrganizationID: "org-missing", Plan: entitlements.PlanGrowth, Active: true,
		Start: start, End: start.AddDate(0, 1, 0), Reference: "ref",
	})
	assert.ErrorContains(t, err, "not found")
}

func TestListPaymentRecords(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM payment_history").
		WithArgs("org-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "organization_id", "amount_cents", "currency", "status", "reference", "transaction_date",
		}).
			AddRow("pay-2", "org-1", int64(39900), "USD", "success", "ref-2", now).
			AddRow("pay-1", "org-1", int64(4900), "USD", "success", "ref-1", now.AddDate(0, -1, 0)))

	records, err := store.ListPaymentRecords(context.Background(), "org-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "ref-2", records[0].Reference, "newest first")
	assert.Equal(t, billing.PaymentStatusSuccess, records[0].Status)
}

func TestDeactivateLapsedSubscriptions(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectExec("UPDATE organizations").
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	count, err := store.DeactivateLapsedSubscriptions(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestGetProfileNone(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM user_profiles").
		WithArgs("user-none").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "role", "organization", "created_at"}))

	p, err := store.GetProfile(context.Background(), "user-none")
	require.NoError(t, err)
	assert.Nil(t, p)
}
