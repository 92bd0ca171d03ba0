// Package httpbackend implements backend.Client against an OAuth2/OIDC
// authorization server plus the lesson platform's auth REST endpoints.
package httpbackend

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/jrsteele09/lingo-session/backend"
	"github.com/jrsteele09/lingo-session/backend/oauthflow"
	autherrors "github.com/jrsteele09/lingo-session/internal/errors"
	"github.com/jrsteele09/lingo-session/sessions"
)

const (
	SignUpPath = "/api/auth/signup"
	LogoutPath = "/api/auth/logout"
)

// Config describes the authorization server.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	RedirectURL  string
	Scopes       []string
}

// Client talks to the auth server and holds the live token in memory only.
type Client struct {
	baseURL    string
	conf       *oauth2.Config
	verifier   *oidc.IDTokenVerifier
	httpClient *http.Client
	flows      oauthflow.Repo
	events     *backend.Broadcaster
	logger     zerolog.Logger
	nowTime    func() time.Time

	mu      sync.Mutex
	token   *oauth2.Token
	user    *sessions.AuthUser
	session string
}

var _ backend.Client = (*Client)(nil)

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(hc *Client) {
		hc.httpClient = c
	}
}

// WithIDTokenVerifier enables ID token verification. OAuth code exchange
// requires it.
func WithIDTokenVerifier(v *oidc.IDTokenVerifier) Option {
	return func(hc *Client) {
		hc.verifier = v
	}
}

func WithFlowRepo(r oauthflow.Repo) Option {
	return func(hc *Client) {
		hc.flows = r
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(hc *Client) {
		hc.logger = l
	}
}

func WithNowTime(now func() time.Time) Option {
	return func(hc *Client) {
		hc.nowTime = now
	}
}

// New creates a Client.
func New(cfg Config, options ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.Wrap(autherrors.ErrInvalidConfig, "[httpbackend.New] base URL is required")
	}
	if cfg.ClientID == "" {
		return nil, errors.Wrap(autherrors.ErrInvalidConfig, "[httpbackend.New] client ID is required")
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if cfg.TokenURL == "" {
		cfg.TokenURL = base + "/oauth2/token"
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = base + "/oauth2/authorize"
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{oidc.ScopeOpenID, "profile", "email", oidc.ScopeOfflineAccess}
	}

	c := &Client{
		baseURL: base,
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
			RedirectURL: cfg.RedirectURL,
			Scopes:      cfg.Scopes,
		},
		httpClient: &http.Client{Timeout: 10 * time.Second},
		events:     backend.NewBroadcaster(),
		logger:     log.Logger,
		nowTime:    time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	if c.flows == nil {
		c.flows = oauthflow.NewInMemoryRepo(oauthflow.WithNowTime(c.nowTime))
	}
	return c, nil
}

// DiscoverVerifier builds an ID token verifier from the issuer's discovery document.
func DiscoverVerifier(ctx context.Context, issuer, clientID string) (*oidc.IDTokenVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, errors.Wrap(err, "[httpbackend.DiscoverVerifier] failed to create OIDC provider")
	}
	return provider.Verifier(&oidc.Config{ClientID: clientID}), nil
}

func (c *Client) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// SignIn performs the resource owner password grant.
func (c *Client) SignIn(ctx context.Context, req backend.SignInRequest) (*backend.AuthResponse, error) {
	tok, err := c.conf.PasswordCredentialsToken(c.clientContext(ctx), req.Email, req.Password)
	if err != nil {
		return nil, mapTokenError(err, autherrors.ErrInvalidCredentials, "[Client.SignIn]")
	}
	user, err := c.userFromToken(ctx, tok, "")
	if err != nil {
		return nil, err
	}
	if user.Email == "" {
		user.Email = req.Email
	}
	return c.establish(tok, user, uuid.NewString(), sessions.EventSignedIn), nil
}

// SignOut revokes the server session when there is one and always clears local state.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	tok := c.token
	c.token, c.user, c.session = nil, nil, ""
	c.mu.Unlock()

	if tok == nil {
		return nil
	}
	c.events.Publish(sessions.Event{Type: sessions.EventSignedOut})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+LogoutPath, nil)
	if err != nil {
		return errors.Wrap(err, "[Client.SignOut] building request")
	}
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(autherrors.ErrBackendUnavailable, "[Client.SignOut] "+err.Error())
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest && resp.StatusCode != http.StatusUnauthorized {
		return decodeAPIError(resp, "[Client.SignOut]")
	}
	return nil
}

// GetSession returns the current session, refreshing it first when the access
// token has expired. No session is not an error.
func (c *Client) GetSession(ctx context.Context) (*backend.AuthResponse, error) {
	c.mu.Lock()
	tok, user, id := c.token, c.user.Clone(), c.session
	c.mu.Unlock()

	if tok == nil {
		return &backend.AuthResponse{}, nil
	}
	if !tok.Expiry.IsZero() && !c.nowTime().Before(tok.Expiry) {
		return c.RefreshSession(ctx)
	}
	return &backend.AuthResponse{User: user, Session: toSession(tok, id)}, nil
}

// RefreshSession exchanges the refresh token for a new access token.
func (c *Client) RefreshSession(ctx context.Context) (*backend.AuthResponse, error) {
	c.mu.Lock()
	current, user, id := c.token, c.user.Clone(), c.session
	c.mu.Unlock()

	if current == nil || current.RefreshToken == "" {
		return nil, errors.Wrap(autherrors.ErrNoRefreshToken, "[Client.RefreshSession]")
	}

	expired := &oauth2.Token{RefreshToken: current.RefreshToken, Expiry: c.nowTime().Add(-time.Second)}
	tok, err := c.conf.TokenSource(c.clientContext(ctx), expired).Token()
	if err != nil {
		return nil, mapTokenError(err, autherrors.ErrSessionExpired, "[Client.RefreshSession]")
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = current.RefreshToken
	}

	refreshed, err := c.userFromToken(ctx, tok, "")
	if err != nil {
		return nil, err
	}
	if refreshed.ID == "" || (user != nil && refreshed.ID == user.ID) {
		refreshed = mergeIdentity(user, refreshed)
	}

	c.mu.Lock()
	if c.session != id {
		c.mu.Unlock()
		return nil, errors.Wrap(autherrors.ErrStaleRefresh, "[Client.RefreshSession] session changed during refresh")
	}
	c.mu.Unlock()
	return c.establish(tok, refreshed, id, sessions.EventTokenRefreshed), nil
}

// Subscribe implements backend.Client.
func (c *Client) Subscribe() (<-chan sessions.Event, func()) {
	return c.events.Subscribe()
}

func (c *Client) establish(tok *oauth2.Token, user *sessions.AuthUser, id string, eventType sessions.EventType) *backend.AuthResponse {
	if tok.Expiry.IsZero() {
		tok.Expiry = accessTokenExpiry(tok.AccessToken)
	}

	c.mu.Lock()
	c.token, c.user, c.session = tok, user.Clone(), id
	c.mu.Unlock()

	resp := &backend.AuthResponse{User: user, Session: toSession(tok, id)}
	c.events.Publish(sessions.Event{Type: eventType, User: user.Clone(), Session: toSession(tok, id)})
	c.logger.Debug().Str("event", string(eventType)).Str("user_id", user.ID).Msg("auth session established")
	return resp
}

func toSession(tok *oauth2.Token, id string) *sessions.AuthSession {
	if tok == nil {
		return nil
	}
	return &sessions.AuthSession{
		ID:           id,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}
}

// mergeIdentity keeps the fields of prev that the refreshed token does not carry.
func mergeIdentity(prev, next *sessions.AuthUser) *sessions.AuthUser {
	if prev == nil {
		return next
	}
	merged := prev.Clone()
	if next.Email != "" {
		merged.Email = next.Email
	}
	if next.FirstName != "" {
		merged.FirstName = next.FirstName
	}
	if next.LastName != "" {
		merged.LastName = next.LastName
	}
	if next.IsEmailVerified {
		merged.IsEmailVerified = true
	}
	return merged
}
