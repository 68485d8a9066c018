package session

import (
	"crypto/subtle"
	"errors"
	"time"
)

// State values for the login flow.
const (
	StateAnonymous        = "anonymous"
	StateAwaitingCallback = "awaiting_callback"
	StateAuthenticated    = "authenticated"
)

// MaxAge bounds how long a browser session is kept.
const MaxAge = 24 * time.Hour

// Domain errors
var (
	ErrNoPendingLogin  = errors.New("no login in progress for this session")
	ErrStateMismatch   = errors.New("login state does not match")
	ErrAlreadyLoggedIn = errors.New("session is already logged in")
	ErrEmptyOAuthState = errors.New("oauth state cannot be empty")
	ErrEmptySessionID  = errors.New("session id cannot be empty")
	ErrUnknownState    = errors.New("unknown session state")
)

// Profile holds the identity provider's user-info claims.
type Profile map[string]any

// DisplayName returns the "name" claim, or fallback when absent.
func (p Profile) DisplayName(fallback string) string {
	if name, ok := p["name"].(string); ok && name != "" {
		return name
	}
	return fallback
}

// Session is the per-browser state carried through each request.
type Session struct {
	ID         string    `json:"id"`
	State      string    `json:"state"`
	OAuthState string    `json:"oauth_state,omitempty"`
	AuthURL    string    `json:"auth_url,omitempty"`
	User       Profile   `json:"user,omitempty"`
	Flash      Flash     `json:"flash,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Flash is a one-shot message shown on the next render.
type Flash struct {
	Kind    string `json:"kind,omitempty"` // "success" or "error"
	Message string `json:"message,omitempty"`
}

// New returns a fresh anonymous session.
// PRE: id is non-empty
// POST: State is anonymous, LoggedIn() is false
func New(id string, now time.Time) Session {
	return Session{ID: id, State: StateAnonymous, CreatedAt: now}
}

// Validate checks the session is well formed.
func (s *Session) Validate() error {
	if s.ID == "" {
		return ErrEmptySessionID
	}
	switch s.State {
	case StateAnonymous, StateAwaitingCallback, StateAuthenticated:
	default:
		return ErrUnknownState
	}
	return nil
}

// LoggedIn reports whether the session completed a login.
func (s Session) LoggedIn() bool {
	return s.State == StateAuthenticated
}

// IsExpired reports whether the session outlived MaxAge.
func (s Session) IsExpired(now time.Time) bool {
	return now.Sub(s.CreatedAt) > MaxAge
}

// BeginLogin records a new authorization attempt.
// A second call while awaiting replaces the pending attempt.
// PRE: oauthState is non-empty, session is not authenticated
// POST: State is awaiting_callback, OAuthState and AuthURL are set
func (s *Session) BeginLogin(authURL, oauthState string) error {
	if s.LoggedIn() {
		return ErrAlreadyLoggedIn
	}
	if oauthState == "" {
		return ErrEmptyOAuthState
	}
	s.State = StateAwaitingCallback
	s.OAuthState = oauthState
	s.AuthURL = authURL
	return nil
}

// CheckCallbackState verifies the state echoed back by the provider.
// PRE: none
// POST: nil only when a login is pending and returned matches it
func (s *Session) CheckCallbackState(returned string) error {
	if s.State != StateAwaitingCallback || s.OAuthState == "" {
		return ErrNoPendingLogin
	}
	if subtle.ConstantTimeCompare([]byte(s.OAuthState), []byte(returned)) != 1 {
		return ErrStateMismatch
	}
	return nil
}

// CompleteLogin marks the session authenticated with the given profile.
// PRE: CheckCallbackState succeeded for this attempt
// POST: LoggedIn() is true, pending state is cleared
func (s *Session) CompleteLogin(user Profile) error {
	if s.State != StateAwaitingCallback {
		return ErrNoPendingLogin
	}
	s.State = StateAuthenticated
	s.User = user
	s.OAuthState = ""
	s.AuthURL = ""
	return nil
}

// FailLogin abandons the pending attempt.
// POST: State is anonymous, User is cleared
func (s *Session) FailLogin() {
	s.State = StateAnonymous
	s.OAuthState = ""
	s.AuthURL = ""
	s.User = nil
}

// Logout returns the session to its fresh-load values. ID and CreatedAt are kept.
// POST: State is anonymous, User, pending state and flash are cleared
func (s *Session) Logout() {
	s.FailLogin()
	s.Flash = Flash{}
}

// SetFlash stores a message for the next render.
func (s *Session) SetFlash(kind, message string) {
	s.Flash = Flash{Kind: kind, Message: message}
}

// TakeFlash returns and clears the pending message.
func (s *Session) TakeFlash() Flash {
	f := s.Flash
	s.Flash = Flash{}
	return f
}
