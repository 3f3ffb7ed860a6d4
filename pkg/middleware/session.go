package middleware

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/simterra/workspace/pkg/contextkeys"
	"github.com/simterra/workspace/pkg/httputil"
	"github.com/simterra/workspace/pkg/session"
)

// SessionSource yields the current session snapshot. Satisfied by
// *session.Store.
type SessionSource interface {
	Snapshot() session.Snapshot
}

// RequireSession rejects requests unless the session store holds an
// authenticated session, and injects the snapshot into the request context
// for handlers.
func RequireSession(sessions SessionSource) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snap := sessions.Snapshot()
			if snap.State != session.StateAuthenticated || snap.Identity == nil {
				httputil.WriteUnauthorized(w, "authentication required")
				return
			}

			ctx := contextkeys.WithSession(r.Context(), snap)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext returns the snapshot injected by RequireSession.
func SessionFromContext(ctx context.Context) (session.Snapshot, bool) {
	snap, ok := ctx.Value(contextkeys.SessionKey).(session.Snapshot)
	return snap, ok
}
