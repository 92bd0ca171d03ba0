package authstore_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/lingo-session/authstore"
	"github.com/jrsteele09/lingo-session/sessions"
)

func authenticatedState() sessions.State {
	return sessions.State{
		User:          &sessions.AuthUser{ID: "u1", Email: "a@x.com", Role: "admin"},
		Session:       &sessions.AuthSession{ID: "s1", AccessToken: "at-1", RefreshToken: "rt-1", ExpiresAt: time.Unix(2000, 0)},
		IsInitialized: true,
		RememberMe:    true,
	}
}

func TestReduce(t *testing.T) {
	newSession := &sessions.AuthSession{ID: "s2", AccessToken: "at-2", RefreshToken: "rt-2"}

	tests := []struct {
		name  string
		state sessions.State
		event sessions.Event
		check func(t *testing.T, before, after sessions.State)
	}{
		{
			name:  "signed in from signed out",
			state: sessions.State{IsInitialized: true},
			event: sessions.Event{Type: sessions.EventSignedIn, User: &sessions.AuthUser{ID: "u1"}, Session: newSession},
			check: func(t *testing.T, _, after sessions.State) {
				require.True(t, after.IsAuthenticated())
				require.Equal(t, "at-2", after.Session.AccessToken)
				require.False(t, after.RememberMe)
			},
		},
		{
			name:  "signed in without user is ignored",
			state: sessions.State{IsInitialized: true},
			event: sessions.Event{Type: sessions.EventSignedIn, Session: newSession},
			check: func(t *testing.T, before, after sessions.State) {
				require.Equal(t, before, after)
			},
		},
		{
			name:  "signed in without session is ignored",
			state: sessions.State{IsInitialized: true},
			event: sessions.Event{Type: sessions.EventSignedIn, User: &sessions.AuthUser{ID: "u1"}},
			check: func(t *testing.T, before, after sessions.State) {
				require.False(t, after.IsAuthenticated())
				require.Equal(t, before, after)
			},
		},
		{
			name:  "same access token is a no-op",
			state: authenticatedState(),
			event: sessions.Event{Type: sessions.EventSignedIn, User: &sessions.AuthUser{ID: "u1"}, Session: &sessions.AuthSession{AccessToken: "at-1"}},
			check: func(t *testing.T, before, after sessions.State) {
				require.Equal(t, before, after)
			},
		},
		{
			name:  "token refreshed keeps role and remember me",
			state: authenticatedState(),
			event: sessions.Event{Type: sessions.EventTokenRefreshed, Session: newSession},
			check: func(t *testing.T, _, after sessions.State) {
				require.Equal(t, "at-2", after.Session.AccessToken)
				require.Equal(t, "admin", after.User.Role)
				require.True(t, after.RememberMe)
			},
		},
		{
			name:  "token refreshed when signed out is ignored",
			state: sessions.State{IsInitialized: true},
			event: sessions.Event{Type: sessions.EventTokenRefreshed, User: &sessions.AuthUser{ID: "u1"}, Session: newSession},
			check: func(t *testing.T, before, after sessions.State) {
				require.Equal(t, before, after)
			},
		},
		{
			name:  "signed in as a different user drops role and remember me",
			state: authenticatedState(),
			event: sessions.Event{Type: sessions.EventSignedIn, User: &sessions.AuthUser{ID: "u2"}, Session: newSession},
			check: func(t *testing.T, _, after sessions.State) {
				require.Equal(t, "u2", after.User.ID)
				require.Empty(t, after.User.Role)
				require.False(t, after.RememberMe)
			},
		},
		{
			name:  "signed out clears both",
			state: authenticatedState(),
			event: sessions.Event{Type: sessions.EventSignedOut},
			check: func(t *testing.T, _, after sessions.State) {
				require.Nil(t, after.User)
				require.Nil(t, after.Session)
				require.False(t, after.RememberMe)
				require.True(t, after.IsInitialized)
			},
		},
		{
			name:  "signed out when signed out is a no-op",
			state: sessions.State{IsInitialized: true, Error: "kept"},
			event: sessions.Event{Type: sessions.EventSignedOut},
			check: func(t *testing.T, before, after sessions.State) {
				require.Equal(t, before, after)
			},
		},
		{
			name:  "user updated merges fields",
			state: authenticatedState(),
			event: sessions.Event{Type: sessions.EventUserUpdated, User: &sessions.AuthUser{ID: "u1", FirstName: "Ana"}},
			check: func(t *testing.T, _, after sessions.State) {
				require.Equal(t, "Ana", after.User.FirstName)
				require.Equal(t, "a@x.com", after.User.Email)
				require.Equal(t, "admin", after.User.Role)
				require.Equal(t, "at-1", after.Session.AccessToken)
			},
		},
		{
			name:  "user updated for another user is ignored",
			state: authenticatedState(),
			event: sessions.Event{Type: sessions.EventUserUpdated, User: &sessions.AuthUser{ID: "u9", FirstName: "Eve"}},
			check: func(t *testing.T, before, after sessions.State) {
				require.Equal(t, before, after)
			},
		},
		{
			name:  "unknown event is ignored",
			state: authenticatedState(),
			event: sessions.Event{Type: "password-recovery"},
			check: func(t *testing.T, before, after sessions.State) {
				require.Equal(t, before, after)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.state.Clone()
			after := authstore.Reduce(tt.state, tt.event)
			require.Equal(t, before, tt.state, "the input state is not modified")
			require.Equal(t, after.User == nil, after.Session == nil)
			tt.check(t, before, after)
		})
	}
}

func TestReduce_Deterministic(t *testing.T) {
	event := sessions.Event{Type: sessions.EventTokenRefreshed, Session: &sessions.AuthSession{ID: "s1", AccessToken: "at-9"}}
	require.Equal(t, authstore.Reduce(authenticatedState(), event), authstore.Reduce(authenticatedState(), event))
}
