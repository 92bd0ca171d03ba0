// Package fakebackend is a scriptable in-memory backend.Client for tests.
package fakebackend

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jrsteele09/lingo-session/backend"
	autherrors "github.com/jrsteele09/lingo-session/internal/errors"
	"github.com/jrsteele09/lingo-session/sessions"
)

// Operation names used with SetError, SetGate and Calls.
const (
	OpSignIn        = "SignIn"
	OpSignUp        = "SignUp"
	OpSignOut       = "SignOut"
	OpGetSession    = "GetSession"
	OpRefresh       = "RefreshSession"
	OpOAuth         = "SignInWithOAuth"
	OpExchangeOAuth = "ExchangeOAuthCode"
)

type account struct {
	password string
	user     sessions.AuthUser
}

// Backend implements backend.Client in memory. Successful operations publish
// the matching event like a real backend does, unless SetPublish(false).
type Backend struct {
	events *backend.Broadcaster

	mu          sync.Mutex
	accounts    map[string]account
	current     *backend.AuthResponse
	errs        map[string]error
	gates       map[string]chan struct{}
	calls       map[string]int
	publish     bool
	confirm     bool
	tokenSerial int
	oauthStates map[string]string
}

var _ backend.Client = (*Backend)(nil)

// New creates an empty fake backend.
func New() *Backend {
	return &Backend{
		events:      backend.NewBroadcaster(),
		accounts:    make(map[string]account),
		errs:        make(map[string]error),
		gates:       make(map[string]chan struct{}),
		calls:       make(map[string]int),
		oauthStates: make(map[string]string),
		publish:     true,
	}
}

// AddAccount registers credentials. The user's Email is set to email.
func (b *Backend) AddAccount(email, password string, user sessions.AuthUser) {
	b.mu.Lock()
	defer b.mu.Unlock()
	user.Email = email
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	b.accounts[email] = account{password: password, user: user}
}

// SetError makes op fail with err until cleared with a nil err.
func (b *Backend) SetError(op string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.errs, op)
		return
	}
	b.errs[op] = err
}

// SetGate blocks op after it is called until gate is closed.
func (b *Backend) SetGate(op string, gate chan struct{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gates[op] = gate
}

// SetPublish turns event publication for direct calls on or off.
func (b *Backend) SetPublish(publish bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.publish = publish
}

// RequireConfirmation makes SignUp return a user without a session.
func (b *Backend) RequireConfirmation(confirm bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirm = confirm
}

// SetCurrent installs a session as if restored from a previous run.
func (b *Backend) SetCurrent(user *sessions.AuthUser, session *sessions.AuthSession) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = &backend.AuthResponse{User: user.Clone(), Session: copySession(session)}
}

// Calls returns how many times op was invoked.
func (b *Backend) Calls(op string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[op]
}

// Push publishes an event as if the backend originated it.
func (b *Backend) Push(event sessions.Event) {
	b.events.Publish(event)
}

// Subscribers returns the number of live subscriptions.
func (b *Backend) Subscribers() int {
	return b.events.Len()
}

// NewSession mints a session with fresh tokens.
func (b *Backend) NewSession() *sessions.AuthSession {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.newSessionLocked(uuid.NewString())
}

func (b *Backend) newSessionLocked(id string) *sessions.AuthSession {
	b.tokenSerial++
	return &sessions.AuthSession{
		ID:           id,
		AccessToken:  fmt.Sprintf("access-%d", b.tokenSerial),
		RefreshToken: fmt.Sprintf("refresh-%d", b.tokenSerial),
		ExpiresAt:    time.Now().Add(time.Hour),
	}
}

// enter records the call, waits on any gate and returns the scripted error.
func (b *Backend) enter(ctx context.Context, op string) error {
	b.mu.Lock()
	b.calls[op]++
	gate := b.gates[op]
	b.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.errs[op]
}

func (b *Backend) establish(user sessions.AuthUser, session *sessions.AuthSession, eventType sessions.EventType) *backend.AuthResponse {
	b.mu.Lock()
	b.current = &backend.AuthResponse{User: user.Clone(), Session: copySession(session)}
	publish := b.publish
	b.mu.Unlock()

	if publish {
		b.events.Publish(sessions.Event{Type: eventType, User: user.Clone(), Session: copySession(session)})
	}
	return &backend.AuthResponse{User: user.Clone(), Session: copySession(session)}
}

func (b *Backend) SignIn(ctx context.Context, req backend.SignInRequest) (*backend.AuthResponse, error) {
	if err := b.enter(ctx, OpSignIn); err != nil {
		return nil, err
	}
	b.mu.Lock()
	acct, ok := b.accounts[req.Email]
	if !ok || acct.password != req.Password {
		b.mu.Unlock()
		return nil, fmt.Errorf("[fakebackend.SignIn] %w", autherrors.ErrInvalidCredentials)
	}
	session := b.newSessionLocked(uuid.NewString())
	b.mu.Unlock()
	return b.establish(acct.user, session, sessions.EventSignedIn), nil
}

func (b *Backend) SignUp(ctx context.Context, req backend.SignUpRequest) (*backend.AuthResponse, error) {
	if err := b.enter(ctx, OpSignUp); err != nil {
		return nil, err
	}
	b.mu.Lock()
	if _, exists := b.accounts[req.Email]; exists {
		b.mu.Unlock()
		return nil, fmt.Errorf("[fakebackend.SignUp] %w", autherrors.ErrUserExists)
	}
	user := sessions.AuthUser{ID: uuid.NewString(), Email: req.Email, FirstName: req.FirstName}
	b.accounts[req.Email] = account{password: req.Password, user: user}
	confirm := b.confirm
	var session *sessions.AuthSession
	if !confirm {
		session = b.newSessionLocked(uuid.NewString())
	}
	b.mu.Unlock()

	if confirm {
		return &backend.AuthResponse{User: user.Clone()}, nil
	}
	return b.establish(user, session, sessions.EventSignedIn), nil
}

func (b *Backend) SignOut(ctx context.Context) error {
	err := b.enter(ctx, OpSignOut)

	b.mu.Lock()
	hadSession := b.current != nil && b.current.Session != nil
	b.current = nil
	publish := b.publish
	b.mu.Unlock()

	if hadSession && publish {
		b.events.Publish(sessions.Event{Type: sessions.EventSignedOut})
	}
	return err
}

func (b *Backend) GetSession(ctx context.Context) (*backend.AuthResponse, error) {
	if err := b.enter(ctx, OpGetSession); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return &backend.AuthResponse{}, nil
	}
	return &backend.AuthResponse{User: b.current.User.Clone(), Session: copySession(b.current.Session)}, nil
}

func (b *Backend) RefreshSession(ctx context.Context) (*backend.AuthResponse, error) {
	if err := b.enter(ctx, OpRefresh); err != nil {
		return nil, err
	}
	b.mu.Lock()
	if b.current == nil || b.current.Session == nil {
		b.mu.Unlock()
		return nil, fmt.Errorf("[fakebackend.RefreshSession] %w", autherrors.ErrNoRefreshToken)
	}
	user := *b.current.User
	session := b.newSessionLocked(b.current.Session.ID)
	b.mu.Unlock()
	return b.establish(user, session, sessions.EventTokenRefreshed), nil
}

func (b *Backend) SignInWithOAuth(ctx context.Context, provider string) (*backend.OAuthResponse, error) {
	if err := b.enter(ctx, OpOAuth); err != nil {
		return nil, err
	}
	state := uuid.NewString()
	b.mu.Lock()
	b.oauthStates[state] = provider
	b.mu.Unlock()
	return &backend.OAuthResponse{
		Provider: provider,
		URL:      "https://auth.example.test/authorize?provider=" + provider + "&state=" + state,
		State:    state,
	}, nil
}

// ExchangeOAuthCode signs in the account registered under code as its email.
func (b *Backend) ExchangeOAuthCode(ctx context.Context, state, code string) (*backend.AuthResponse, error) {
	if err := b.enter(ctx, OpExchangeOAuth); err != nil {
		return nil, err
	}
	b.mu.Lock()
	_, ok := b.oauthStates[state]
	delete(b.oauthStates, state)
	acct, known := b.accounts[code]
	if !ok || !known {
		b.mu.Unlock()
		return nil, fmt.Errorf("[fakebackend.ExchangeOAuthCode] %w", autherrors.ErrInvalidOAuthState)
	}
	session := b.newSessionLocked(uuid.NewString())
	b.mu.Unlock()
	return b.establish(acct.user, session, sessions.EventSignedIn), nil
}

func (b *Backend) Subscribe() (<-chan sessions.Event, func()) {
	return b.events.Subscribe()
}

func copySession(s *sessions.AuthSession) *sessions.AuthSession {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
