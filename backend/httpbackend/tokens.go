package httpbackend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	autherrors "github.com/jrsteele09/lingo-session/internal/errors"
	"github.com/jrsteele09/lingo-session/sessions"
)

type idTokenClaims struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Nonce         string `json:"nonce"`
}

// userFromToken builds the identity for a token response. Identity fields come
// from the verified ID token when one is available. Role is never read here.
func (c *Client) userFromToken(ctx context.Context, tok *oauth2.Token, nonce string) (*sessions.AuthUser, error) {
	rawIDToken, _ := tok.Extra("id_token").(string)
	if rawIDToken == "" || c.verifier == nil {
		if nonce != "" {
			return nil, errors.Wrap(autherrors.ErrInvalidOAuthState, "[Client.userFromToken] no verifiable ID token in response")
		}
		return &sessions.AuthUser{ID: unverifiedSubject(tok.AccessToken)}, nil
	}

	idToken, err := c.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, errors.Wrap(autherrors.ErrInvalidCredentials, "[Client.userFromToken] ID token verification failed: "+err.Error())
	}
	var claims idTokenClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, errors.Wrap(err, "[Client.userFromToken] failed to extract claims")
	}
	if nonce != "" && claims.Nonce != nonce {
		return nil, errors.Wrap(autherrors.ErrInvalidOAuthState, "[Client.userFromToken] nonce mismatch")
	}

	lastLogin := c.nowTime().UTC()
	return &sessions.AuthUser{
		ID:              claims.Subject,
		Email:           claims.Email,
		FirstName:       claims.GivenName,
		LastName:        claims.FamilyName,
		IsEmailVerified: claims.EmailVerified,
		LastLoginAt:     &lastLogin,
	}, nil
}

// accessTokenExpiry reads exp from a JWT access token without verifying it.
// It is only used for refresh scheduling.
func accessTokenExpiry(raw string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

func unverifiedSubject(raw string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return ""
	}
	sub, _ := claims.GetSubject()
	return sub
}

// mapTokenError converts token endpoint failures. invalid_grant maps to grantErr.
func mapTokenError(err error, grantErr error, op string) error {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) {
		return errors.Wrap(autherrors.ErrBackendUnavailable, op+" "+err.Error())
	}
	switch re.ErrorCode {
	case "invalid_grant":
		return errors.Wrap(grantErr, op+" "+re.ErrorCode)
	case "email_not_confirmed":
		return errors.Wrap(autherrors.ErrEmailNotConfirmed, op)
	}
	if re.ErrorCode == "" {
		return errors.Wrap(autherrors.ErrBackendUnavailable, op+" "+err.Error())
	}
	return errors.Wrap(&autherrors.BackendError{
		Code:    re.ErrorCode,
		Message: re.ErrorDescription,
		Err:     autherrors.ErrBackendUnavailable,
	}, op)
}

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// decodeAPIError maps a non-2xx REST response to an error.
func decodeAPIError(resp *http.Response, op string) error {
	var body apiError
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&body)

	sentinel := autherrors.ErrBackendUnavailable
	switch resp.StatusCode {
	case http.StatusConflict:
		sentinel = autherrors.ErrUserExists
	case http.StatusUnauthorized:
		sentinel = autherrors.ErrNotAuthenticated
	}
	if body.Error == "" && body.Message == "" {
		return errors.Wrapf(sentinel, "%s status %d", op, resp.StatusCode)
	}
	return errors.Wrap(&autherrors.BackendError{Code: body.Error, Message: body.Message, Err: sentinel}, op)
}
