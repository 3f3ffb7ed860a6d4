package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// OIDCConfig configures the OIDC-backed provider.
type OIDCConfig struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string

	// RegistrationURL is the provider's account-creation endpoint (for
	// example a Keycloak registration API). SignUp fails when unset.
	RegistrationURL string

	// RevocationURL, when set, is called on SignOut to revoke the token
	// server-side. A revocation failure is reported but the local session
	// is dropped regardless.
	RevocationURL string

	// HTTPClient overrides the client used for registration/revocation
	// calls. Defaults to a 10s-timeout client.
	HTTPClient *http.Client
}

// OIDCProvider implements Provider against an OIDC issuer using the password
// grant for sign-in and ID-token verification for identity claims.
type OIDCProvider struct {
	cfg      OIDCConfig
	verifier *oidc.IDTokenVerifier
	oauth    *oauth2.Config
	http     *http.Client
	hub      *eventHub

	mu      sync.Mutex
	session *Session
	token   *oauth2.Token
}

// NewOIDCProvider discovers the issuer and builds a provider. The context
// bounds the discovery call only.
func NewOIDCProvider(ctx context.Context, cfg OIDCConfig) (*OIDCProvider, error) {
	prov, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC issuer: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &OIDCProvider{
		cfg:      cfg,
		verifier: prov.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     prov.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		},
		http: httpClient,
		hub:  newEventHub(),
	}, nil
}

// GetSession returns the cached session, dropping it first if expired.
func (p *OIDCProvider) GetSession(ctx context.Context) (*Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session == nil {
		return nil, nil
	}
	if p.session.Expired(time.Now()) {
		p.session = nil
		p.token = nil
		return nil, nil
	}
	copied := *p.session
	return &copied, nil
}

// SignInWithPassword runs the OAuth2 password grant and verifies the returned
// ID token. On success the session is cached and a SIGNED_IN event fires.
func (p *OIDCProvider) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	tok, err := p.oauth.PasswordCredentialsToken(ctx, email, password)
	if err != nil {
		return nil, &AuthError{Reason: err.Error(), Err: err}
	}

	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, &AuthError{Reason: "token response missing id_token"}
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, &AuthError{Reason: "id_token verification failed: " + err.Error(), Err: err}
	}

	var claims struct {
		Email string `json:"email"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, &AuthError{Reason: "failed to parse id_token claims: " + err.Error(), Err: err}
	}

	expiry := tok.Expiry
	sess := &Session{
		Identity: Identity{ID: idToken.Subject, Email: claims.Email},
	}
	if !expiry.IsZero() {
		sess.ExpiresAt = &expiry
	}

	p.mu.Lock()
	p.session = sess
	p.token = tok
	p.mu.Unlock()

	copied := *sess
	p.hub.dispatch(Event{Kind: EventSignedIn, Session: &copied})
	return &copied, nil
}

// SignUp creates an account through the configured registration endpoint.
func (p *OIDCProvider) SignUp(ctx context.Context, email, password string) (*Identity, error) {
	if p.cfg.RegistrationURL == "" {
		return nil, &AuthError{Reason: "sign-up is not configured for this provider"}
	}

	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, fmt.Errorf("failed to encode registration request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.RegistrationURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build registration request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, &AuthError{Reason: "registration request failed: " + err.Error(), Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read registration response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		// The provider's reason passes through unchanged.
		reason := strings.TrimSpace(string(payload))
		if reason == "" {
			reason = resp.Status
		}
		return nil, &AuthError{Reason: reason}
	}

	var out struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("failed to parse registration response: %w", err)
	}
	if out.ID == "" {
		return nil, &AuthError{Reason: "registration response missing account id"}
	}
	if out.Email == "" {
		out.Email = email
	}

	return &Identity{ID: out.ID, Email: out.Email}, nil
}

// SignOut drops the cached session, fires SIGNED_OUT, and then attempts
// server-side revocation. The local drop happens first so an unreachable
// provider cannot keep a session alive.
func (p *OIDCProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	tok := p.token
	p.session = nil
	p.token = nil
	p.mu.Unlock()

	p.hub.dispatch(Event{Kind: EventSignedOut})

	if p.cfg.RevocationURL == "" || tok == nil {
		return nil
	}

	form := url.Values{}
	form.Set("token", tok.AccessToken)
	form.Set("client_id", p.cfg.ClientID)
	form.Set("client_secret", p.cfg.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.RevocationURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build revocation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.http.Do(req)
	if err != nil {
		return &AuthError{Reason: "token revocation failed: " + err.Error(), Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return &AuthError{Reason: "token revocation failed: " + resp.Status}
	}
	return nil
}

// OnAuthStateChange registers a handler for sign-in/sign-out events.
func (p *OIDCProvider) OnAuthStateChange(h Handler) Unsubscribe {
	return p.hub.subscribe(h)
}
