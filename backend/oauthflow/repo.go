// Package oauthflow keeps the PKCE verifier and nonce of OAuth redirects that
// have been started but not yet completed.
package oauthflow

import "time"

// DefaultTTL bounds how long a started flow can be completed.
const DefaultTTL = 10 * time.Minute

// Flow is the client-side half of an in-progress authorization code flow.
type Flow struct {
	Provider     string
	CodeVerifier string
	Nonce        string
	CreatedAt    time.Time
}

// Repo stores flows keyed by their OAuth state parameter.
type Repo interface {
	Put(state string, flow Flow) error
	// Take returns and removes the flow. Expired or unknown states return ErrNotFound.
	Take(state string) (Flow, error)
}
