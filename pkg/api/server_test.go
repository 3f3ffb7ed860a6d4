package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/simterra/workspace/pkg/billing"
	"github.com/simterra/workspace/pkg/identity"
	"github.com/simterra/workspace/pkg/observability"
	"github.com/simterra/workspace/pkg/orgs"
	"github.com/simterra/workspace/pkg/provisioning"
	"github.com/simterra/workspace/pkg/session"
)

// memStore is an in-memory implementation of the full persistence surface,
// shared by the resolver, provisioning, and billing in these tests.
type memStore struct {
	mu          sync.Mutex
	orgRows     map[string]orgs.Organization
	memberships []orgs.Membership
	profiles    map[string]orgs.Profile
	payments    []billing.PaymentRecord

	failAppend bool
}

func newMemStore() *memStore {
	return &memStore{
		orgRows:  make(map[string]orgs.Organization),
		profiles: make(map[string]orgs.Profile),
	}
}

func (s *memStore) InsertOrganization(_ context.Context, org *orgs.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.orgRows[org.ID]; !exists {
		s.orgRows[org.ID] = *org
	}
	return nil
}

func (s *memStore) InsertMembership(_ context.Context, m *orgs.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.memberships {
		if existing.IdentityID == m.IdentityID && existing.OrganizationID == m.OrganizationID {
			return nil
		}
	}
	s.memberships = append(s.memberships, *m)
	return nil
}

func (s *memStore) InsertProfile(_ context.Context, p *orgs.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.profiles[p.ID]; !exists {
		s.profiles[p.ID] = *p
	}
	return nil
}

func (s *memStore) FirstMembership(_ context.Context, identityID string) (*orgs.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.memberships {
		if m.IdentityID == identityID {
			out := m
			return &out, nil
		}
	}
	return nil, nil
}

func (s *memStore) GetOrganization(_ context.Context, id string) (*orgs.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	org, ok := s.orgRows[id]
	if !ok {
		return nil, errors.New("organization not found")
	}
	out := org
	return &out, nil
}

func (s *memStore) UpdateOrganizationSubscription(_ context.Context, u billing.SubscriptionUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	org, ok := s.orgRows[u.OrganizationID]
	if !ok {
		return errors.New("organization not found")
	}
	org.Plan = u.Plan
	org.SubscriptionActive = u.Active
	start, end := u.Start, u.End
	org.SubscriptionStart = &start
	org.SubscriptionEnd = &end
	org.PaymentReference = u.Reference
	s.orgRows[u.OrganizationID] = org
	return nil
}

func (s *memStore) AppendPaymentRecord(_ context.Context, rec *billing.PaymentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAppend {
		return errors.New("payment_history unavailable")
	}
	s.payments = append(s.payments, *rec)
	return nil
}

func (s *memStore) ListPaymentRecords(_ context.Context, organizationID string) ([]billing.PaymentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []billing.PaymentRecord
	for _, rec := range s.payments {
		if rec.OrganizationID == organizationID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// stubProvider is an in-memory identity provider keyed by email.
type stubProvider struct {
	mu       sync.Mutex
	accounts map[string]string // email -> password
	ids      map[string]string // email -> identity id
	current  *identity.Session
	handler  identity.Handler
}

func newStubProvider() *stubProvider {
	return &stubProvider{
		accounts: make(map[string]string),
		ids:      make(map[string]string),
	}
}

func (p *stubProvider) register(email, password, id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accounts[email] = password
	p.ids[email] = id
}

func (p *stubProvider) GetSession(context.Context) (*identity.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, nil
}

func (p *stubProvider) SignInWithPassword(_ context.Context, email, password string) (*identity.Session, error) {
	p.mu.Lock()
	stored, ok := p.accounts[email]
	id := p.ids[email]
	p.mu.Unlock()
	if !ok || stored != password {
		return nil, &identity.AuthError{Reason: "invalid credentials"}
	}
	sess := &identity.Session{Identity: identity.Identity{ID: id, Email: email}}
	p.mu.Lock()
	p.current = sess
	p.mu.Unlock()
	return sess, nil
}

func (p *stubProvider) SignUp(_ context.Context, email, password string) (*identity.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.accounts[email]; exists {
		return nil, &identity.AuthError{Reason: "email already registered"}
	}
	id := "id-" + email
	p.accounts[email] = password
	p.ids[email] = id
	return &identity.Identity{ID: id, Email: email}, nil
}

func (p *stubProvider) SignOut(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = nil
	return nil
}

func (p *stubProvider) OnAuthStateChange(h identity.Handler) identity.Unsubscribe {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handler = h
	return func() {}
}

// fixture wires the full stack over in-memory collaborators.
type fixture struct {
	server   *Server
	provider *stubProvider
	store    *memStore
	sessions *session.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	provider := newStubProvider()
	store := newMemStore()

	resolver := orgs.NewResolver(store, nil, logger)
	sessions := session.New(provider, resolver, logger, nil)
	t.Cleanup(sessions.Close)

	namespace := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	provisioner := provisioning.NewWorkflow(provider, store, sessions, logger, nil, namespace)
	activation := billing.NewActivation(store, logger, nil)
	coordinator := billing.NewCoordinator(activation, logger)

	server := NewServer(Deps{
		Sessions:    sessions,
		Provisioner: provisioner,
		Billing:     activation,
		Checkout:    coordinator,
		Logger:      logger,
	})

	return &fixture{server: server, provider: provider, store: store, sessions: sessions}
}

// signUpAndIn provisions an account through the API and leaves the session
// authenticated.
func (f *fixture) signUp(t *testing.T, email, orgName string) SignUpResponse {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/v1/auth/signup", SignUpRequest{
		Email: email, Password: "hunter2hunter2", OrganizationName: orgName,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp SignUpResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}
