package orchestrators

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"ays/internal/domain/session"
)

// Flash messages shown after a callback.
const (
	MsgLoginSuccess = "Successfully logged in!"
	msgOAuthError   = "OAuth error: %s"
)

// IdentityProvider defines the OAuth2 operations needed by the login flow.
type IdentityProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (session.Profile, error)
}

// ErrProviderDenied is returned when the provider redirects back with an error parameter.
var ErrProviderDenied = errors.New("identity provider returned an error")

// BeginLoginInput carries input for the begin-login orchestrator.
type BeginLoginInput struct {
	Session *session.Session
}

// BeginLoginDeps holds dependencies for BeginLogin.
type BeginLoginDeps struct {
	Provider      IdentityProvider
	GenerateState func() (string, error) // nil uses NewOAuthState
}

// ExecuteBeginLogin starts a fresh authorization attempt and returns the URL to present.
// PRE: input.Session is anonymous or awaiting a callback
// POST: session is awaiting_callback with a new random state bound into the returned URL
func ExecuteBeginLogin(_ context.Context, input BeginLoginInput, deps BeginLoginDeps) (string, error) {
	gen := deps.GenerateState
	if gen == nil {
		gen = NewOAuthState
	}
	state, err := gen()
	if err != nil {
		return "", fmt.Errorf("generate oauth state: %w", err)
	}
	authURL := deps.Provider.AuthCodeURL(state)
	if err := input.Session.BeginLogin(authURL, state); err != nil {
		return "", err
	}
	return authURL, nil
}

// CompleteLoginInput carries the query parameters of the provider's redirect.
type CompleteLoginInput struct {
	Session          *session.Session
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// CompleteLoginDeps holds dependencies for CompleteLogin.
type CompleteLoginDeps struct {
	Provider IdentityProvider
}

// ExecuteCompleteLogin finishes the attempt started by ExecuteBeginLogin.
// PRE: input.Code or input.Error is set
// POST: on success the session is authenticated with the user-info claims and a success flash;
// on any failure the session is anonymous with an "OAuth error: ..." flash
// INVARIANT: an already authenticated session is left untouched
func ExecuteCompleteLogin(ctx context.Context, input CompleteLoginInput, deps CompleteLoginDeps) error {
	sess := input.Session
	if sess.LoggedIn() {
		return session.ErrAlreadyLoggedIn
	}

	profile, err := completeLogin(ctx, input, deps)
	if err != nil {
		sess.FailLogin()
		sess.SetFlash("error", fmt.Sprintf(msgOAuthError, err.Error()))
		slog.Info("auth_event", "event", "login_failed", "session_id", sess.ID, "reason", err.Error())
		return err
	}

	if err := sess.CompleteLogin(profile); err != nil {
		return err
	}
	sess.SetFlash("success", MsgLoginSuccess)
	slog.Info("auth_event", "event", "login_success", "session_id", sess.ID, "name", profile.DisplayName(""))
	return nil
}

func completeLogin(ctx context.Context, input CompleteLoginInput, deps CompleteLoginDeps) (session.Profile, error) {
	if input.Error != "" {
		reason := input.Error
		if input.ErrorDescription != "" {
			reason += ": " + input.ErrorDescription
		}
		return nil, fmt.Errorf("%w: %s", ErrProviderDenied, reason)
	}
	if err := input.Session.CheckCallbackState(input.State); err != nil {
		return nil, err
	}
	return deps.Provider.Exchange(ctx, input.Code)
}

// NewOAuthState returns 32 random bytes, URL-safe encoded.
func NewOAuthState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// ExecuteLogout returns the session to its logged-out values.
// POST: LoggedIn() is false; user and pending state are cleared
func ExecuteLogout(_ context.Context, sess *session.Session) {
	wasLoggedIn := sess.LoggedIn()
	sess.Logout()
	if wasLoggedIn {
		slog.Info("auth_event", "event", "logout", "session_id", sess.ID)
	}
}
