package httpbackend

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/jrsteele09/lingo-session/backend"
	autherrors "github.com/jrsteele09/lingo-session/internal/errors"
	"github.com/jrsteele09/lingo-session/sessions"
)

type signUpBody struct {
	Email     string         `json:"email"`
	Password  string         `json:"password"`
	FirstName string         `json:"firstName"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type signUpResult struct {
	User struct {
		ID              string `json:"id"`
		Email           string `json:"email"`
		FirstName       string `json:"firstName"`
		LastName        string `json:"lastName"`
		IsEmailVerified bool   `json:"isEmailVerified"`
	} `json:"user"`
	Session *struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
	} `json:"session"`
}

// SignUp registers an account. When the server requires email confirmation it
// returns a user without a session.
func (c *Client) SignUp(ctx context.Context, req backend.SignUpRequest) (*backend.AuthResponse, error) {
	payload, err := json.Marshal(signUpBody{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		Metadata:  req.Metadata,
	})
	if err != nil {
		return nil, errors.Wrap(err, "[Client.SignUp] encoding request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+SignUpPath, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "[Client.SignUp] building request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(autherrors.ErrBackendUnavailable, "[Client.SignUp] "+err.Error())
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, decodeAPIError(resp, "[Client.SignUp]")
	}

	var result signUpResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(err, "[Client.SignUp] decoding response")
	}

	user := &sessions.AuthUser{
		ID:              result.User.ID,
		Email:           result.User.Email,
		FirstName:       result.User.FirstName,
		LastName:        result.User.LastName,
		IsEmailVerified: result.User.IsEmailVerified,
	}
	if user.Email == "" {
		user.Email = req.Email
	}
	if result.Session == nil || result.Session.AccessToken == "" {
		return &backend.AuthResponse{User: user}, nil
	}

	tok := &oauth2.Token{
		AccessToken:  result.Session.AccessToken,
		RefreshToken: result.Session.RefreshToken,
		TokenType:    "Bearer",
	}
	if result.Session.ExpiresIn > 0 {
		tok.Expiry = c.nowTime().Add(time.Duration(result.Session.ExpiresIn) * time.Second)
	}
	return c.establish(tok, user, uuid.NewString(), sessions.EventSignedIn), nil
}
