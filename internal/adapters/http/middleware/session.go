package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	sessionStore "ays/internal/adapters/storage/session"
	"ays/internal/domain/session"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const sessionContextKey contextKey = "session"

// SessionCookieName names the cookie holding the session id.
const SessionCookieName = "ays_session"

// timeNow is a variable for testability.
var timeNow = time.Now

// Sessions returns middleware that loads the browser's session, creating an anonymous one on
// first visit, and saves it back after the handler returns.
// The cookie carries only the id. It is SameSite=Lax so the identity provider's redirect back
// to the site still sends it.
func Sessions(store sessionStore.Store, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sess, found := loadSession(ctx, store, r)
			if !found {
				sess = session.New(uuid.New().String(), timeNow())
				setSessionCookie(w, sess.ID, secure)
			}

			oldID := sess.ID
			rw := &rotatingWriter{ResponseWriter: w, sess: &sess, wasLoggedIn: sess.LoggedIn(), secure: secure}
			next.ServeHTTP(rw, r.WithContext(ContextWithSession(ctx, &sess)))
			rw.rotate()

			// Saved even if the client went away, so a completed login is not lost.
			saveCtx := context.WithoutCancel(ctx)
			if found && sess.ID != oldID {
				if err := store.Delete(saveCtx, oldID); err != nil {
					slog.Error("session_store_error", "op", "delete", "error", err)
				}
			}
			if err := store.Save(saveCtx, sess); err != nil {
				slog.Error("session_store_error", "op", "save", "error", err)
			}
		})
	}
}

// rotatingWriter gives the session a new id when the handler logs it in. The new cookie is
// set just before the response headers are sent.
type rotatingWriter struct {
	http.ResponseWriter
	sess        *session.Session
	wasLoggedIn bool
	secure      bool
	checked     bool
}

// rotate runs once per request.
// POST: a session that became authenticated during the request carries a fresh id and cookie
func (rw *rotatingWriter) rotate() {
	if rw.checked {
		return
	}
	rw.checked = true
	if rw.wasLoggedIn || !rw.sess.LoggedIn() {
		return
	}
	rw.sess.ID = uuid.New().String()
	setSessionCookie(rw.ResponseWriter, rw.sess.ID, rw.secure)
	slog.Info("auth_event", "event", "session_rotated", "session_id", rw.sess.ID)
}

func (rw *rotatingWriter) WriteHeader(code int) {
	rw.rotate()
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *rotatingWriter) Write(b []byte) (int, error) {
	rw.rotate()
	return rw.ResponseWriter.Write(b)
}

func loadSession(ctx context.Context, store sessionStore.Store, r *http.Request) (session.Session, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return session.Session{}, false
	}
	sess, err := store.Get(ctx, cookie.Value)
	if err != nil {
		if !errors.Is(err, sessionStore.ErrNotFound) {
			slog.Error("session_store_error", "op", "get", "error", err)
		}
		return session.Session{}, false
	}
	return sess, true
}

// GetSessionFromContext extracts the mutable session from the request context.
func GetSessionFromContext(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey).(*session.Session)
	return sess, ok && sess != nil
}

// IsLoggedIn reports whether the request's session completed a login.
func IsLoggedIn(ctx context.Context) bool {
	sess, ok := GetSessionFromContext(ctx)
	return ok && sess.LoggedIn()
}

// ContextWithSession returns a context carrying sess.
// Intended for use in tests and by Sessions.
func ContextWithSession(ctx context.Context, sess *session.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// setSessionCookie sets a browser-session cookie (no Max-Age), matching the session's lifetime
// of "until the browser is closed or MaxAge elapses".
func setSessionCookie(w http.ResponseWriter, id string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    id,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	})
}
