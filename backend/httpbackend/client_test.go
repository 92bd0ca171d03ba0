package httpbackend_test

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/lingo-session/backend"
	"github.com/jrsteele09/lingo-session/backend/httpbackend"
	autherrors "github.com/jrsteele09/lingo-session/internal/errors"
	"github.com/jrsteele09/lingo-session/sessions"
)

func nextEvent(t *testing.T, events <-chan sessions.Event) sessions.Event {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for auth event")
		return sessions.Event{}
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := httpbackend.New(httpbackend.Config{ClientID: testClientID})
	require.ErrorIs(t, err, autherrors.ErrInvalidConfig)

	_, err = httpbackend.New(httpbackend.Config{BaseURL: "http://localhost"})
	require.ErrorIs(t, err, autherrors.ErrInvalidConfig)
}

func TestClient_SignIn(t *testing.T) {
	as := newAuthServer(t)
	c := as.client(t)
	events, unsubscribe := c.Subscribe()
	defer unsubscribe()

	resp, err := c.SignIn(context.Background(), backend.SignInRequest{Email: testEmail, Password: testPassword})
	require.NoError(t, err)
	require.NotNil(t, resp.User)
	require.NotNil(t, resp.Session)

	require.Equal(t, testSubject, resp.User.ID)
	require.Equal(t, testEmail, resp.User.Email)
	require.Equal(t, "Ana", resp.User.FirstName)
	require.True(t, resp.User.IsEmailVerified)
	require.Empty(t, resp.User.Role, "roles are never taken from token claims")

	require.NotEmpty(t, resp.Session.ID)
	require.NotEmpty(t, resp.Session.AccessToken)
	require.Equal(t, "refresh-1", resp.Session.RefreshToken)
	require.WithinDuration(t, time.Now().Add(time.Hour), resp.Session.ExpiresAt, time.Minute)

	ev := nextEvent(t, events)
	require.Equal(t, sessions.EventSignedIn, ev.Type)
	require.Equal(t, resp.Session.AccessToken, ev.Session.AccessToken)

	current, err := c.GetSession(context.Background())
	require.NoError(t, err)
	require.Equal(t, resp.Session.ID, current.Session.ID)
	require.Equal(t, testSubject, current.User.ID)
}

func TestClient_SignIn_InvalidCredentials(t *testing.T) {
	as := newAuthServer(t)
	c := as.client(t)

	_, err := c.SignIn(context.Background(), backend.SignInRequest{Email: testEmail, Password: "wrong"})
	require.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
	require.Equal(t, "Invalid email or password.", autherrors.UserMessage(err))

	current, err := c.GetSession(context.Background())
	require.NoError(t, err)
	require.Nil(t, current.Session)
}

func TestClient_SignIn_Unreachable(t *testing.T) {
	as := newAuthServer(t)
	c := as.client(t)
	as.srv.Close()

	_, err := c.SignIn(context.Background(), backend.SignInRequest{Email: testEmail, Password: testPassword})
	require.ErrorIs(t, err, autherrors.ErrBackendUnavailable)
	require.Equal(t, autherrors.GenericMessage, autherrors.UserMessage(err))
}

func TestClient_RefreshSession(t *testing.T) {
	as := newAuthServer(t)
	c := as.client(t)

	_, err := c.RefreshSession(context.Background())
	require.ErrorIs(t, err, autherrors.ErrNoRefreshToken)

	signedIn, err := c.SignIn(context.Background(), backend.SignInRequest{Email: testEmail, Password: testPassword})
	require.NoError(t, err)

	events, unsubscribe := c.Subscribe()
	defer unsubscribe()

	refreshed, err := c.RefreshSession(context.Background())
	require.NoError(t, err)
	require.Equal(t, signedIn.Session.ID, refreshed.Session.ID)
	require.NotEqual(t, signedIn.Session.AccessToken, refreshed.Session.AccessToken)
	require.Equal(t, "refresh-1", refreshed.Session.RefreshToken)
	require.Equal(t, testEmail, refreshed.User.Email)
	require.Equal(t, "Ana", refreshed.User.FirstName)

	ev := nextEvent(t, events)
	require.Equal(t, sessions.EventTokenRefreshed, ev.Type)
}

func TestClient_RefreshSession_Rejected(t *testing.T) {
	as := newAuthServer(t)
	c := as.client(t)
	_, err := c.SignIn(context.Background(), backend.SignInRequest{Email: testEmail, Password: testPassword})
	require.NoError(t, err)

	as.mu.Lock()
	as.refreshFail = true
	as.mu.Unlock()

	_, err = c.RefreshSession(context.Background())
	require.ErrorIs(t, err, autherrors.ErrSessionExpired)
}

func TestClient_RefreshSession_StaleAfterSignOut(t *testing.T) {
	as := newAuthServer(t)
	c := as.client(t)
	_, err := c.SignIn(context.Background(), backend.SignInRequest{Email: testEmail, Password: testPassword})
	require.NoError(t, err)

	gate := make(chan struct{})
	as.mu.Lock()
	as.refreshGate = gate
	as.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		_, err := c.RefreshSession(context.Background())
		errCh <- err
	}()

	require.Eventually(t, func() bool {
		as.mu.Lock()
		defer as.mu.Unlock()
		return as.refreshCount == 1
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, c.SignOut(context.Background()))
	close(gate)

	require.ErrorIs(t, <-errCh, autherrors.ErrStaleRefresh)
	current, err := c.GetSession(context.Background())
	require.NoError(t, err)
	require.Nil(t, current.Session)
}

func TestClient_SignOut(t *testing.T) {
	as := newAuthServer(t)
	c := as.client(t)

	require.NoError(t, c.SignOut(context.Background()), "signing out without a session is a no-op")
	as.mu.Lock()
	require.Equal(t, 0, as.logoutCalls)
	as.mu.Unlock()

	_, err := c.SignIn(context.Background(), backend.SignInRequest{Email: testEmail, Password: testPassword})
	require.NoError(t, err)

	events, unsubscribe := c.Subscribe()
	defer unsubscribe()

	require.NoError(t, c.SignOut(context.Background()))
	require.Equal(t, sessions.EventSignedOut, nextEvent(t, events).Type)

	as.mu.Lock()
	require.Equal(t, 1, as.logoutCalls)
	as.mu.Unlock()

	current, err := c.GetSession(context.Background())
	require.NoError(t, err)
	require.Nil(t, current.User)
	require.Nil(t, current.Session)
}

func TestClient_SignUp(t *testing.T) {
	as := newAuthServer(t)
	c := as.client(t)

	resp, err := c.SignUp(context.Background(), backend.SignUpRequest{
		Email:     "new@x.com",
		Password:  "pw",
		FirstName: "Nia",
		Metadata:  map[string]any{"role": "admin", "nativeLanguage": "es"},
	})
	require.NoError(t, err)
	require.Equal(t, "new-user", resp.User.ID)
	require.Equal(t, "new@x.com", resp.User.Email)
	require.Equal(t, "Nia", resp.User.FirstName)
	require.Empty(t, resp.User.Role)
	require.Nil(t, resp.Session, "confirmation pending means no session")

	as.mu.Lock()
	require.Len(t, as.signUpBodies, 1)
	require.Equal(t, "Nia", as.signUpBodies[0]["firstName"])
	as.mu.Unlock()
}

func TestClient_SignUp_WithSession(t *testing.T) {
	as := newAuthServer(t)
	as.mu.Lock()
	as.signUpSession = true
	as.mu.Unlock()
	c := as.client(t)

	resp, err := c.SignUp(context.Background(), backend.SignUpRequest{Email: "new@x.com", Password: "pw", FirstName: "Nia"})
	require.NoError(t, err)
	require.NotNil(t, resp.Session)
	require.Equal(t, "refresh-signup", resp.Session.RefreshToken)
	require.False(t, resp.Session.ExpiresAt.IsZero())
}

func TestClient_SignUp_Duplicate(t *testing.T) {
	as := newAuthServer(t)
	c := as.client(t)

	_, err := c.SignUp(context.Background(), backend.SignUpRequest{Email: "taken@x.com", Password: "pw"})
	require.ErrorIs(t, err, autherrors.ErrUserExists)
	require.Equal(t, "User already registered", autherrors.UserMessage(err))
}

func TestClient_OAuth(t *testing.T) {
	as := newAuthServer(t)
	c := as.client(t)

	start, err := c.SignInWithOAuth(context.Background(), "google")
	require.NoError(t, err)
	require.Equal(t, "google", start.Provider)
	require.NotEmpty(t, start.State)

	u, err := url.Parse(start.URL)
	require.NoError(t, err)
	q := u.Query()
	require.Equal(t, "/oauth2/authorize", u.Path)
	require.Equal(t, start.State, q.Get("state"))
	require.Equal(t, "google", q.Get("provider"))
	require.Equal(t, "S256", q.Get("code_challenge_method"))
	require.NotEmpty(t, q.Get("code_challenge"))
	require.NotEmpty(t, q.Get("nonce"))

	as.mu.Lock()
	as.nonce = q.Get("nonce")
	as.mu.Unlock()

	resp, err := c.ExchangeOAuthCode(context.Background(), start.State, "good-code")
	require.NoError(t, err)
	require.Equal(t, testSubject, resp.User.ID)
	require.Equal(t, "refresh-oauth", resp.Session.RefreshToken)
	as.mu.Lock()
	require.NotEmpty(t, as.codeVerifier)
	as.mu.Unlock()

	_, err = c.ExchangeOAuthCode(context.Background(), start.State, "good-code")
	require.ErrorIs(t, err, autherrors.ErrInvalidOAuthState, "state is single use")
}

func TestClient_OAuth_NonceMismatch(t *testing.T) {
	as := newAuthServer(t)
	c := as.client(t)

	start, err := c.SignInWithOAuth(context.Background(), "github")
	require.NoError(t, err)
	as.mu.Lock()
	as.nonce = "someone-elses-nonce"
	as.mu.Unlock()

	_, err = c.ExchangeOAuthCode(context.Background(), start.State, "good-code")
	require.ErrorIs(t, err, autherrors.ErrInvalidOAuthState)
}

func TestClient_OAuth_UnknownState(t *testing.T) {
	as := newAuthServer(t)
	c := as.client(t)

	_, err := c.ExchangeOAuthCode(context.Background(), "never-issued", "good-code")
	require.ErrorIs(t, err, autherrors.ErrInvalidOAuthState)

	_, err = c.SignInWithOAuth(context.Background(), "")
	require.ErrorIs(t, err, autherrors.ErrInvalidConfig)
}
