package storage

import (
	"context"
	"time"

	"github.com/simterra/workspace/pkg/billing"
	"github.com/simterra/workspace/pkg/orgs"
	"github.com/simterra/workspace/pkg/provisioning"
)

// Config holds persistence configuration.
type Config struct {
	// PostgresURL is the primary database connection string.
	PostgresURL string

	// Connection pool settings.
	MaxConns    int
	MinConns    int
	Timeout     time.Duration
	MaxLifetime time.Duration
	MaxIdleTime time.Duration

	// RedisAddr enables the shared snapshot cache when non-empty.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration
}

// DefaultConfig returns sensible defaults for local development.
func DefaultConfig() Config {
	return Config{
		PostgresURL: "postgres://localhost:5432/workspace?sslmode=disable",
		MaxConns:    25,
		MinConns:    5,
		Timeout:     10 * time.Second,
		MaxLifetime: 30 * time.Minute,
		MaxIdleTime: 5 * time.Minute,
		CacheTTL:    15 * time.Minute,
	}
}

// Store is the full persistence surface, the union of the narrow interfaces
// the workflow packages declare. Exists so the composition root can hold one
// value satisfying all of them; consumers should keep depending on their own
// slice.
type Store interface {
	orgs.Store
	provisioning.Store
	billing.Store

	// GetProfile returns the display profile for an identity, or (nil, nil)
	// when none exists.
	GetProfile(ctx context.Context, identityID string) (*orgs.Profile, error)

	// DeactivateLapsedSubscriptions flips subscription_active off for every
	// organization whose window ended before now, returning how many rows
	// changed.
	DeactivateLapsedSubscriptions(ctx context.Context, now time.Time) (int64, error)

	Ping(ctx context.Context) error
	Close() error
}
