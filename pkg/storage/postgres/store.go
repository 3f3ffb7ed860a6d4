package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/simterra/workspace/pkg/billing"
	"github.com/simterra/workspace/pkg/observability"
	"github.com/simterra/workspace/pkg/orgs"
)

// Store implements the persistence surface over PostgreSQL. Provisioning
// inserts are idempotent via ON CONFLICT DO NOTHING, so re-running a
// partially failed workflow converges instead of conflicting.
type Store struct {
	db *sql.DB
}

// NewStore creates a store over an existing connection pool.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// InsertOrganization creates an organization. Inserting an id that already
// exists is a no-op success.
func (s *Store) InsertOrganization(ctx context.Context, org *orgs.Organization) error {
	query := `
		INSERT INTO organizations (id, name, plan, subscription_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		org.ID, org.Name, org.Plan, org.SubscriptionActive, org.CreatedAt, org.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert organization: %w", err)
	}
	return nil
}

// InsertMembership links an identity to an organization. Re-inserting an
// existing link is a no-op success.
func (s *Store) InsertMembership(ctx context.Context, m *orgs.Membership) error {
	query := `
		INSERT INTO user_organizations (identity_id, organization_id, role, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (identity_id, organization_id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query, m.IdentityID, m.OrganizationID, m.Role, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert membership: %w", err)
	}
	return nil
}

// InsertProfile creates a display profile keyed by identity id. Re-inserting
// is a no-op success.
func (s *Store) InsertProfile(ctx context.Context, p *orgs.Profile) error {
	query := `
		INSERT INTO user_profiles (id, name, role, organization, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query, p.ID, p.Name, p.RoleLabel, p.Organization, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert profile: %w", err)
	}
	return nil
}

// FirstMembership returns the identity's first membership by insertion order,
// or (nil, nil) when the identity belongs to no organization. The secondary
// sort key makes the pick deterministic when rows share a timestamp.
func (s *Store) FirstMembership(ctx context.Context, identityID string) (*orgs.Membership, error) {
	query := `
		SELECT identity_id, organization_id, role, created_at
		FROM user_organizations
		WHERE identity_id = $1
		ORDER BY created_at ASC, organization_id ASC
		LIMIT 1
	`
	m := &orgs.Membership{}
	err := s.db.QueryRowContext(ctx, query, identityID).
		Scan(&m.IdentityID, &m.OrganizationID, &m.Role, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return m, nil
}

// GetOrganization retrieves an organization by id.
func (s *Store) GetOrganization(ctx context.Context, id string) (*orgs.Organization, error) {
	query := `
		SELECT id, name, plan, subscription_active, subscription_start_date,
		       subscription_end_date, payment_reference, created_at, updated_at
		FROM organizations
		WHERE id = $1
	`
	org := &orgs.Organization{}
	var reference sql.NullString
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&org.ID, &org.Name, &org.Plan, &org.SubscriptionActive,
		&org.SubscriptionStart, &org.SubscriptionEnd, &reference,
		&org.CreatedAt, &org.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("organization %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	org.PaymentReference = reference.String
	return org, nil
}

// GetProfile returns the display profile for an identity, or (nil, nil) when
// none exists.
func (s *Store) GetProfile(ctx context.Context, identityID string) (*orgs.Profile, error) {
	query := `
		SELECT id, name, role, organization, created_at
		FROM user_profiles
		WHERE id = $1
	`
	p := &orgs.Profile{}
	err := s.db.QueryRowContext(ctx, query, identityID).
		Scan(&p.ID, &p.Name, &p.RoleLabel, &p.Organization, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

// UpdateOrganizationSubscription commits a subscription activation to the
// organization row.
func (s *Store) UpdateOrganizationSubscription(ctx context.Context, u billing.SubscriptionUpdate) error {
	query := `
		UPDATE organizations
		SET plan = $2, subscription_active = $3, subscription_start_date = $4,
		    subscription_end_date = $5, payment_reference = $6, updated_at = NOW()
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		u.OrganizationID, u.Plan, u.Active, u.Start, u.End, u.Reference)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("organization %s not found", u.OrganizationID)
	}
	return nil
}

// AppendPaymentRecord appends one row to the payment history.
func (s *Store) AppendPaymentRecord(ctx context.Context, rec *billing.PaymentRecord) error {
	query := `
		INSERT INTO payment_history (id, organization_id, amount_cents, currency, status, reference, transaction_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.OrganizationID, rec.AmountCents, rec.Currency,
		rec.Status, rec.Reference, rec.TransactionDate)
	if err != nil {
		return fmt.Errorf("failed to append payment record: %w", err)
	}
	return nil
}

// ListPaymentRecords returns the organization's payment history, newest
// first.
func (s *Store) ListPaymentRecords(ctx context.Context, organizationID string) ([]billing.PaymentRecord, error) {
	query := `
		SELECT id, organization_id, amount_cents, currency, status, reference, transaction_date
		FROM payment_history
		WHERE organization_id = $1
		ORDER BY transaction_date DESC
	`
	rows, err := s.db.QueryContext(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment records: %w", err)
	}
	defer rows.Close()

	var records []billing.PaymentRecord
	for rows.Next() {
		var rec billing.PaymentRecord
		if err := rows.Scan(&rec.ID, &rec.OrganizationID, &rec.AmountCents,
			&rec.Currency, &rec.Status, &rec.Reference, &rec.TransactionDate); err != nil {
			return nil, fmt.Errorf("failed to scan payment record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payment records: %w", err)
	}
	return records, nil
}

// DeactivateLapsedSubscriptions flips subscription_active off for every
// organization whose window ended before now. The plan column is left alone;
// entitlement gating stays plan-keyed.
func (s *Store) DeactivateLapsedSubscriptions(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE organizations
		SET subscription_active = FALSE, updated_at = NOW()
		WHERE subscription_active = TRUE AND subscription_end_date < $1
	`
	result, err := s.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate lapsed subscriptions: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deactivated rows: %w", err)
	}
	return rows, nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// ReportPoolStats publishes connection pool gauges. Call periodically from
// the composition root.
func (s *Store) ReportPoolStats(m *observability.Metrics) {
	stats := s.db.Stats()
	m.DBConnectionsActive.Set(float64(stats.InUse))
	m.DBConnectionsIdle.Set(float64(stats.Idle))
}
