package session

import (
	"context"
	"errors"
	"sync"

	"github.com/simterra/workspace/pkg/entitlements"
	"github.com/simterra/workspace/pkg/identity"
	"github.com/simterra/workspace/pkg/observability"
	"github.com/simterra/workspace/pkg/orgs"
)

// State represents the session lifecycle state
type State string

const (
	StateUnresolved    State = "unresolved"
	StateResolving     State = "resolving"
	StateAuthenticated State = "authenticated"
	StateAnonymous     State = "anonymous"
)

// Resolver maps an identity to its organization snapshot.
type Resolver interface {
	Resolve(ctx context.Context, identityID string) (*orgs.Organization, error)
	Prime(ctx context.Context, identityID string, org *orgs.Organization)
	Invalidate(ctx context.Context, identityID string)
}

// Snapshot is a point-in-time copy of the session state.
type Snapshot struct {
	State        State              `json:"state"`
	Identity     *identity.Identity `json:"identity,omitempty"`
	Organization *orgs.Organization `json:"organization,omitempty"`
}

// Store is the session state machine. All fields behind mu; the epoch counter
// increments on every transition that supersedes in-flight work, which is how
// stale resolves and superseded settles are detected.
type Store struct {
	provider identity.Provider
	resolver Resolver
	logger   *observability.Logger
	metrics  *observability.Metrics // optional

	mu       sync.Mutex
	state    State
	identity *identity.Identity
	org      *orgs.Organization
	epoch    uint64

	unsubscribe identity.Unsubscribe
	closeOnce   sync.Once
}

// New creates a session store and subscribes to provider auth events for the
// lifetime of the store. Call Close on teardown to unregister the handler.
// metrics may be nil.
func New(provider identity.Provider, resolver Resolver, logger *observability.Logger, metrics *observability.Metrics) *Store {
	s := &Store{
		provider: provider,
		resolver: resolver,
		logger:   logger,
		metrics:  metrics,
		state:    StateUnresolved,
	}
	s.unsubscribe = provider.OnAuthStateChange(s.handleAuthEvent)
	return s
}

// Close unregisters the auth-event handler. Safe to call more than once.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
	})
}

// RestoreSession queries the provider for an existing session and settles the
// store. A provider error settles to Anonymous and is surfaced through the
// logger rather than returned, so a flaky provider never blocks the caller.
// Returns the state the store settled into.
func (s *Store) RestoreSession(ctx context.Context) State {
	epoch := s.beginResolving()

	sess, err := s.provider.GetSession(ctx)
	if err != nil {
		s.logger.WithError(err).Error("session restore failed")
		s.countRestore("error")
		s.settleAnonymous(epoch)
		return s.State()
	}
	if sess == nil {
		s.countRestore("anonymous")
		s.settleAnonymous(epoch)
		return s.State()
	}

	s.countRestore("authenticated")
	s.settleAuthenticated(ctx, epoch, sess.Identity)
	return s.State()
}

// SignIn delegates to the provider and settles the store. Provider
// rejections pass through as *identity.AuthError.
func (s *Store) SignIn(ctx context.Context, email, credential string) error {
	epoch := s.beginResolving()

	sess, err := s.provider.SignInWithPassword(ctx, email, credential)
	if err != nil {
		if s.metrics != nil {
			s.metrics.SignInsTotal.WithLabelValues("failure").Inc()
		}
		s.settleAnonymous(epoch)
		return err
	}

	if s.metrics != nil {
		s.metrics.SignInsTotal.WithLabelValues("success").Inc()
	}
	s.settleAuthenticated(ctx, epoch, sess.Identity)
	return nil
}

// SignOut clears local state first and then calls the provider. The local
// clear always happens, so an unreachable provider cannot trap the caller in
// an authenticated session; the remote error, if any, is returned for
// reporting.
func (s *Store) SignOut(ctx context.Context) error {
	s.clearLocal(ctx)
	if s.metrics != nil {
		s.metrics.SignOutsTotal.Inc()
	}

	if err := s.provider.SignOut(ctx); err != nil {
		s.logger.WithError(err).Warn("remote sign-out failed; local session already cleared")
		return err
	}
	return nil
}

// CheckAccess evaluates a feature gate against the cached organization. Pure
// and synchronous: no organization (or plan none) denies everything.
func (s *Store) CheckAccess(feature entitlements.Feature) bool {
	s.mu.Lock()
	org := s.org
	s.mu.Unlock()

	if org == nil {
		return false
	}
	return entitlements.CheckAccess(org.Plan, feature)
}

// Snapshot returns a copy of the current session state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{State: s.state}
	if s.identity != nil {
		id := *s.identity
		snap.Identity = &id
	}
	if s.org != nil {
		org := *s.org
		snap.Organization = &org
	}
	return snap
}

// State returns the current lifecycle state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Prime installs a freshly provisioned identity and organization without a
// provider round trip. Used as the provisioning postcondition.
func (s *Store) Prime(ctx context.Context, id identity.Identity, org *orgs.Organization) {
	s.mu.Lock()
	s.epoch++
	s.state = StateAuthenticated
	idCopy := id
	s.identity = &idCopy
	s.org = org
	s.mu.Unlock()

	if org != nil {
		s.resolver.Prime(ctx, id.ID, org)
	}
}

// RefreshOrganization re-resolves the current identity's organization,
// bypassing caches. Call after a subscription activation commits so the
// session does not serve a stale plan.
func (s *Store) RefreshOrganization(ctx context.Context) error {
	s.mu.Lock()
	if s.identity == nil {
		s.mu.Unlock()
		return nil
	}
	id := *s.identity
	epoch := s.epoch
	s.mu.Unlock()

	s.resolver.Invalidate(ctx, id.ID)
	org, err := s.resolver.Resolve(ctx, id.ID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch || s.identity == nil || s.identity.ID != id.ID {
		s.countStaleDrop()
		return nil
	}
	switch {
	case err == nil:
		s.org = org
		return nil
	case errors.Is(err, orgs.ErrNoOrganization):
		s.org = nil
		return nil
	default:
		return err
	}
}

// handleAuthEvent processes provider notifications. The provider dispatches
// events sequentially, so the SIGNED_OUT clear below completes before any
// queued SIGNED_IN starts resolving.
func (s *Store) handleAuthEvent(ev identity.Event) {
	defer observability.RecoverPanic(s.logger, "auth event handler")

	switch ev.Kind {
	case identity.EventSignedOut:
		s.clearLocal(context.Background())
	case identity.EventSignedIn:
		if ev.Session == nil {
			return
		}
		epoch := s.beginResolving()
		s.settleAuthenticated(context.Background(), epoch, ev.Session.Identity)
	}
}

// beginResolving supersedes any in-flight work and enters Resolving.
func (s *Store) beginResolving() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.state = StateResolving
	return s.epoch
}

// settleAnonymous settles the epoch's transition unless a later transition
// already superseded it (last writer wins).
func (s *Store) settleAnonymous(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return
	}
	s.state = StateAnonymous
	s.identity = nil
	s.org = nil
}

// settleAuthenticated installs the identity, then resolves its organization.
// The post-resolve write is guarded by both the epoch and the identity id the
// resolve was issued for: a response arriving after sign-out (or for a
// different identity) is discarded.
func (s *Store) settleAuthenticated(ctx context.Context, epoch uint64, id identity.Identity) {
	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return
	}
	s.state = StateAuthenticated
	idCopy := id
	s.identity = &idCopy
	s.org = nil
	s.mu.Unlock()

	org, err := s.resolver.Resolve(ctx, id.ID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch || s.identity == nil || s.identity.ID != id.ID {
		s.countStaleDrop()
		return
	}
	switch {
	case err == nil:
		s.org = org
	case errors.Is(err, orgs.ErrNoOrganization):
		// Valid for a freshly created identity awaiting provisioning.
		s.org = nil
	default:
		// Retryable lookup failure; the session stays authenticated
		// with no organization until the caller retries.
		s.logger.WithError(err).WithField("identity_id", id.ID).
			Warn("organization resolution failed")
	}
}

// clearLocal wipes identity and organization state and invalidates the
// resolver cache for the departing identity.
func (s *Store) clearLocal(ctx context.Context) {
	s.mu.Lock()
	s.epoch++
	var prev string
	if s.identity != nil {
		prev = s.identity.ID
	}
	s.identity = nil
	s.org = nil
	s.state = StateAnonymous
	s.mu.Unlock()

	if prev != "" {
		s.resolver.Invalidate(ctx, prev)
	}
}

func (s *Store) countRestore(outcome string) {
	if s.metrics != nil {
		s.metrics.SessionRestoresTotal.WithLabelValues(outcome).Inc()
	}
}

func (s *Store) countStaleDrop() {
	if s.metrics != nil {
		s.metrics.StaleResolvesDropped.Inc()
	}
}
