// Package profile fetches the server-authoritative user profile that the
// session store takes roles from.
package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	autherrors "github.com/jrsteele09/lingo-session/internal/errors"
)

// DefaultPath is the profile endpoint relative to the backend base URL.
const DefaultPath = "/api/auth/me"

const maxProfileBytes = 1 << 20

// Profile is the response of GET /api/auth/me.
type Profile struct {
	ID              string `json:"id,omitempty"`
	Email           string `json:"email,omitempty"`
	Role            string `json:"role"`
	FirstName       string `json:"firstName,omitempty"`
	LastName        string `json:"lastName,omitempty"`
	IsEmailVerified bool   `json:"isEmailVerified"`
}

// Fetcher resolves the profile for the owner of an access token.
type Fetcher interface {
	FetchProfile(ctx context.Context, accessToken string) (*Profile, error)
}

// Client calls the profile endpoint over HTTP with a bearer token.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

var _ Fetcher = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(pc *Client) {
		pc.httpClient = c
	}
}

// WithPath overrides DefaultPath.
func WithPath(path string) ClientOption {
	return func(pc *Client) {
		if path != "" {
			pc.endpoint = path
		}
	}
}

// New returns a Client for the backend at baseURL.
func New(baseURL string, options ...ClientOption) *Client {
	c := &Client{
		endpoint:   DefaultPath,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range options {
		opt(c)
	}
	c.endpoint = strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(c.endpoint, "/")
	return c
}

// FetchProfile performs GET {base}/api/auth/me with the access token.
func (c *Client) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("[profile.FetchProfile] %w", autherrors.ErrNotAuthenticated)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("[profile.FetchProfile] building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("[profile.FetchProfile] %v: %w", err, autherrors.ErrBackendUnavailable)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("[profile.FetchProfile] status %d: %w", resp.StatusCode, autherrors.ErrNotAuthenticated)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("[profile.FetchProfile] status %d: %w", resp.StatusCode, autherrors.ErrBackendUnavailable)
	}

	var p Profile
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxProfileBytes)).Decode(&p); err != nil {
		return nil, fmt.Errorf("[profile.FetchProfile] decoding: %w", err)
	}
	return &p, nil
}
