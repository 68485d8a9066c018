package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"ays/internal/domain/session"
)

// ExchangeTimeout bounds the token exchange and user-info fetch together.
const ExchangeTimeout = 15 * time.Second

var (
	// ErrTokenExchange is returned when the token endpoint refuses the code.
	ErrTokenExchange = errors.New("token exchange failed")
	// ErrUserInfo is returned when the user-info endpoint answers with a non-200 status.
	ErrUserInfo = errors.New("userinfo request failed")
)

// Config holds the identity provider's endpoints and client registration.
type Config struct {
	ClientID         string
	ClientSecret     string
	AuthorizationURL string
	TokenURL         string
	UserInfoURL      string
	RedirectURL      string
}

// OAuthProvider runs the authorization-code flow against an OpenID Connect provider such as Okta.
type OAuthProvider struct {
	oauth       oauth2.Config
	userInfoURL string
	httpClient  *http.Client // nil uses http.DefaultClient
}

// NewOAuthProvider builds a provider requesting the openid scope.
func NewOAuthProvider(cfg Config) *OAuthProvider {
	return &OAuthProvider{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthorizationURL,
				TokenURL: cfg.TokenURL,
			},
			RedirectURL: cfg.RedirectURL,
			Scopes:      []string{"openid"},
		},
		userInfoURL: cfg.UserInfoURL,
	}
}

// WithHTTPClient sets the client used for back-channel calls.
func (p *OAuthProvider) WithHTTPClient(c *http.Client) *OAuthProvider {
	p.httpClient = c
	return p
}

// AuthCodeURL returns the authorization URL bound to state.
// PRE: state is non-empty and unguessable
func (p *OAuthProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

// Exchange trades an authorization code for a token and returns the user-info claims.
// PRE: code came from the provider's redirect
// POST: on success the returned profile holds the decoded user-info JSON object
func (p *OAuthProvider) Exchange(ctx context.Context, code string) (session.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, ExchangeTimeout)
	defer cancel()
	if p.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	}

	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTokenExchange, tokenErrorReason(err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build userinfo request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := p.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: status %d", ErrUserInfo, resp.StatusCode)
	}
	var profile session.Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	return profile, nil
}

// tokenErrorReason prefers the provider's OAuth error code over the raw response text.
func tokenErrorReason(err error) string {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.ErrorCode != "" {
		if re.ErrorDescription != "" {
			return re.ErrorCode + ": " + re.ErrorDescription
		}
		return re.ErrorCode
	}
	return err.Error()
}
