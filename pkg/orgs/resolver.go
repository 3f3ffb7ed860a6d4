package orgs

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/simterra/workspace/pkg/observability"
)

// localCacheSize bounds the per-process snapshot cache.
const localCacheSize = 256

// Store is the row-store surface the resolver needs.
type Store interface {
	// FirstMembership returns the identity's first membership by storage
	// insertion order, or (nil, nil) when the identity has none.
	FirstMembership(ctx context.Context, identityID string) (*Membership, error)
	GetOrganization(ctx context.Context, id string) (*Organization, error)
}

// SnapshotCache is a shared cache of resolved organization snapshots keyed by
// identity id. Implementations must treat failures as misses; the resolver
// never distinguishes a cache error from a cold cache.
type SnapshotCache interface {
	Get(ctx context.Context, identityID string) (*Organization, bool)
	Set(ctx context.Context, identityID string, org *Organization)
	Invalidate(ctx context.Context, identityID string)
}

// Resolver maps an authenticated identity to exactly one organization
// snapshot, with a bounded per-process cache in front of an optional shared
// cache in front of the store.
type Resolver struct {
	store  Store
	shared SnapshotCache // may be nil
	local  *lru.Cache[string, *Organization]
	logger *observability.Logger
}

// NewResolver creates a resolver. shared may be nil when no shared cache is
// configured.
func NewResolver(store Store, shared SnapshotCache, logger *observability.Logger) *Resolver {
	local, err := lru.New[string, *Organization](localCacheSize)
	if err != nil {
		// lru.New only fails on a non-positive size.
		panic(fmt.Sprintf("lru cache init: %v", err))
	}
	return &Resolver{
		store:  store,
		shared: shared,
		local:  local,
		logger: logger,
	}
}

// Resolve returns the organization snapshot for identityID.
//
// Zero memberships yield ErrNoOrganization. Storage failures yield a
// *LookupError and are retryable. ErrNoOrganization is never cached: the next
// Resolve after provisioning must see the new membership.
func (r *Resolver) Resolve(ctx context.Context, identityID string) (*Organization, error) {
	if org, ok := r.local.Get(identityID); ok {
		return org, nil
	}
	if r.shared != nil {
		if org, ok := r.shared.Get(ctx, identityID); ok {
			r.local.Add(identityID, org)
			return org, nil
		}
	}

	m, err := r.store.FirstMembership(ctx, identityID)
	if err != nil {
		return nil, &LookupError{Op: "membership lookup", Err: err}
	}
	if m == nil {
		return nil, ErrNoOrganization
	}

	org, err := r.store.GetOrganization(ctx, m.OrganizationID)
	if err != nil {
		return nil, &LookupError{Op: "organization lookup", Err: err}
	}

	r.fill(ctx, identityID, org)
	return org, nil
}

// Prime seeds the caches with a snapshot known to be fresh, such as the
// organization just created by provisioning.
func (r *Resolver) Prime(ctx context.Context, identityID string, org *Organization) {
	r.fill(ctx, identityID, org)
}

// Invalidate drops cached snapshots for the identity. Called on sign-out and
// after a subscription activation commits, so the next Resolve re-reads the
// store.
func (r *Resolver) Invalidate(ctx context.Context, identityID string) {
	r.local.Remove(identityID)
	if r.shared != nil {
		r.shared.Invalidate(ctx, identityID)
	}
}

func (r *Resolver) fill(ctx context.Context, identityID string, org *Organization) {
	r.local.Add(identityID, org)
	if r.shared != nil {
		r.shared.Set(ctx, identityID, org)
	}
}
