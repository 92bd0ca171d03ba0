// Package backend defines the contract the session store uses to talk to the
// remote authentication service.
package backend

import (
	"context"

	"github.com/jrsteele09/lingo-session/sessions"
)

type SignInRequest struct {
	Email    string
	Password string
}

// SignUpRequest registers a new account. Metadata is profile data for the new
// account and is never a source of roles.
type SignUpRequest struct {
	Email     string
	Password  string
	FirstName string
	Metadata  map[string]any
}

// AuthResponse carries the result of a credential exchange. User and Session are
// nil when the backend has no active session (e.g. sign-up awaiting confirmation).
type AuthResponse struct {
	User    *sessions.AuthUser
	Session *sessions.AuthSession
}

// OAuthResponse is the provider redirect produced by SignInWithOAuth.
type OAuthResponse struct {
	Provider string
	URL      string
	State    string
}

// Client performs network credential exchange. Every method may block on I/O.
type Client interface {
	SignIn(ctx context.Context, req SignInRequest) (*AuthResponse, error)
	SignUp(ctx context.Context, req SignUpRequest) (*AuthResponse, error)
	SignOut(ctx context.Context) error
	GetSession(ctx context.Context) (*AuthResponse, error)
	RefreshSession(ctx context.Context) (*AuthResponse, error)
	SignInWithOAuth(ctx context.Context, provider string) (*OAuthResponse, error)
	ExchangeOAuthCode(ctx context.Context, state, code string) (*AuthResponse, error)

	// Subscribe returns a channel of auth state changes and a function that
	// ends the subscription. The channel is never closed.
	Subscribe() (<-chan sessions.Event, func())
}
