package server

import (
	"context"
	"net/http"

	"github.com/hkpass/console/internal/console"
	"github.com/hkpass/console/internal/store"
)

type ctxKey int

const ctxKeySession ctxKey = iota

func sessionMiddleware(gate *console.Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(sessionCookieName)
			if err != nil || cookie.Value == "" {
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}

			sess, err := gate.Session(r.Context(), cookie.Value)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeySession, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionFrom(r *http.Request) (store.Session, bool) {
	sess, ok := r.Context().Value(ctxKeySession).(store.Session)
	return sess, ok
}

// sessionTag is a short, log-safe prefix of the caller's session id.
func sessionTag(r *http.Request) string {
	sess, ok := sessionFrom(r)
	if !ok {
		return ""
	}
	if len(sess.ID) > 8 {
		return sess.ID[:8]
	}
	return sess.ID
}
