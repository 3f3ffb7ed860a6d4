package identity

import (
	"context"
	"time"
)

// Identity is an authenticated actor as the provider sees it. The id is
// opaque; nothing in this system parses it.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is an existing provider session for an identity.
type Session struct {
	Identity  Identity   `json:"identity"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the session's expiry, if set, has passed.
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && now.After(*s.ExpiresAt)
}

// EventKind identifies an auth-state notification
type EventKind string

const (
	EventSignedIn  EventKind = "SIGNED_IN"
	EventSignedOut EventKind = "SIGNED_OUT"
)

// Event is an asynchronous auth-state notification from the provider.
// Session is nil for sign-out events.
type Event struct {
	Kind    EventKind
	Session *Session
}

// Handler receives auth-state events. Handlers for a single subscriber are
// invoked sequentially in dispatch order.
type Handler func(Event)

// Unsubscribe removes a previously registered handler. Safe to call more
// than once.
type Unsubscribe func()

// Provider is the external identity collaborator.
type Provider interface {
	// GetSession returns the current session, or (nil, nil) when there is
	// none.
	GetSession(ctx context.Context) (*Session, error)

	// SignInWithPassword authenticates with an email/password credential.
	// Rejections surface as *AuthError.
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)

	// SignUp creates a new account. Duplicate emails surface as *AuthError.
	SignUp(ctx context.Context, email, password string) (*Identity, error)

	// SignOut ends the remote session. Local state handling is the
	// caller's concern; see session.Store.
	SignOut(ctx context.Context) error

	// OnAuthStateChange registers a handler for sign-in/sign-out events
	// for the life of the process. The returned Unsubscribe must be called
	// on teardown so callbacks do not leak into a torn-down session.
	OnAuthStateChange(h Handler) Unsubscribe
}
