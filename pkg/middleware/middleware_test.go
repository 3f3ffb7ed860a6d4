package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simterra/workspace/pkg/contextkeys"
	"github.com/simterra/workspace/pkg/identity"
	"github.com/simterra/workspace/pkg/observability"
	"github.com/simterra/workspace/pkg/session"
)

func testLogger() *observability.Logger {
	return observability.NewLogger(observability.ErrorLevel, io.Discard)
}

type fakeSessionSource struct {
	snap session.Snapshot
}

func (f *fakeSessionSource) Snapshot() session.Snapshot { return f.snap }

func TestLoggingInjectsRequestID(t *testing.T) {
	var seenID string
	handler := Logging(testLogger(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = contextkeys.GetRequestID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.NotEmpty(t, seenID)
	assert.Equal(t, seenID, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestLoggingHonorsIncomingRequestID(t *testing.T) {
	handler := Logging(testLogger(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-abc")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "req-abc", rec.Header().Get("X-Request-ID"))
}

func TestLoggingRecoversPanics(t *testing.T) {
	handler := Logging(testLogger(), nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	require.NotPanics(t, func() { handler.ServeHTTP(rec, req) })
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
}

func TestRequireSessionRejectsAnonymous(t *testing.T) {
	source := &fakeSessionSource{snap: session.Snapshot{State: session.StateAnonymous}}
	handler := RequireSession(source)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/org", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireSessionInjectsSnapshot(t *testing.T) {
	source := &fakeSessionSource{snap: session.Snapshot{
		State:    session.StateAuthenticated,
		Identity: &identity.Identity{ID: "user-1", Email: "a@b.co"},
	}}

	var got session.Snapshot
	handler := RequireSession(source)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap, ok := SessionFromContext(r.Context())
		require.True(t, ok)
		got = snap
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/org", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got.Identity)
	assert.Equal(t, "user-1", got.Identity.ID)
}

func TestRequireSessionResolvingIsUnauthorized(t *testing.T) {
	source := &fakeSessionSource{snap: session.Snapshot{State: session.StateResolving}}
	handler := RequireSession(source)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/org", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
