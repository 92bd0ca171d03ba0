package httpbackend

import (
	"context"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/jrsteele09/lingo-session/backend"
	"github.com/jrsteele09/lingo-session/backend/oauthflow"
	autherrors "github.com/jrsteele09/lingo-session/internal/errors"
	"github.com/jrsteele09/lingo-session/sessions"
)

// SignInWithOAuth starts an authorization code flow with PKCE for the provider.
func (c *Client) SignInWithOAuth(_ context.Context, provider string) (*backend.OAuthResponse, error) {
	if provider == "" {
		return nil, errors.Wrap(autherrors.ErrInvalidConfig, "[Client.SignInWithOAuth] provider is required")
	}
	if c.verifier == nil {
		return nil, errors.Wrap(autherrors.ErrInvalidConfig, "[Client.SignInWithOAuth] ID token verifier is not configured")
	}

	state := uuid.NewString()
	flow := oauthflow.Flow{
		Provider:     provider,
		CodeVerifier: oauth2.GenerateVerifier(),
		Nonce:        uuid.NewString(),
		CreatedAt:    c.nowTime(),
	}
	if err := c.flows.Put(state, flow); err != nil {
		return nil, errors.Wrap(err, "[Client.SignInWithOAuth] saving flow")
	}

	url := c.conf.AuthCodeURL(state,
		oauth2.S256ChallengeOption(flow.CodeVerifier),
		oauth2.SetAuthURLParam("provider", provider),
		oidc.Nonce(flow.Nonce),
	)
	return &backend.OAuthResponse{Provider: provider, URL: url, State: state}, nil
}

// ExchangeOAuthCode completes a flow started by SignInWithOAuth.
func (c *Client) ExchangeOAuthCode(ctx context.Context, state, code string) (*backend.AuthResponse, error) {
	if state == "" || code == "" {
		return nil, errors.Wrap(autherrors.ErrInvalidOAuthState, "[Client.ExchangeOAuthCode] missing code or state")
	}
	flow, err := c.flows.Take(state)
	if err != nil {
		return nil, errors.Wrap(autherrors.ErrInvalidOAuthState, "[Client.ExchangeOAuthCode] "+err.Error())
	}

	tok, err := c.conf.Exchange(c.clientContext(ctx), code, oauth2.VerifierOption(flow.CodeVerifier))
	if err != nil {
		return nil, mapTokenError(err, autherrors.ErrInvalidOAuthState, "[Client.ExchangeOAuthCode]")
	}
	user, err := c.userFromToken(ctx, tok, flow.Nonce)
	if err != nil {
		return nil, err
	}
	return c.establish(tok, user, uuid.NewString(), sessions.EventSignedIn), nil
}
