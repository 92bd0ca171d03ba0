package sessions

import (
	"time"
)

// AuthSession is the credential pair identifying an authenticated backend connection.
// The store treats the tokens as opaque; only ExpiresAt is inspected.
// AuthSession values are never written to persistent storage.
type AuthSession struct {
	ID           string    // Local identity of this session (UUID), used to detect stale results
	AccessToken  string    // Short-lived access credential
	RefreshToken string    // Longer-lived renewal credential
	ExpiresAt    time.Time // When the access token expires
}

// Expired reports whether the access token has expired at the given time.
func (s *AuthSession) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// AuthUser is the signed-in identity. Role must only ever come from a server
// authoritative source (the profile endpoint or backend-issued session metadata).
type AuthUser struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	FirstName       string     `json:"firstName,omitempty"`
	LastName        string     `json:"lastName,omitempty"`
	Role            string     `json:"role,omitempty"`
	IsEmailVerified bool       `json:"isEmailVerified"`
	LastLoginAt     *time.Time `json:"lastLoginAt,omitempty"`
}

// Clone returns a deep copy of the user.
func (u *AuthUser) Clone() *AuthUser {
	if u == nil {
		return nil
	}
	c := *u
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		c.LastLoginAt = &t
	}
	return &c
}

// ProfileUpdate is a shallow partial update of a user. Nil fields are left unchanged.
// Role is deliberately absent: roles are never client-supplied.
type ProfileUpdate struct {
	Email           *string
	FirstName       *string
	LastName        *string
	IsEmailVerified *bool
	LastLoginAt     *time.Time
}

// Apply merges the update onto a copy of u.
func (p ProfileUpdate) Apply(u *AuthUser) *AuthUser {
	if u == nil {
		return nil
	}
	merged := u.Clone()
	if p.Email != nil {
		merged.Email = *p.Email
	}
	if p.FirstName != nil {
		merged.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		merged.LastName = *p.LastName
	}
	if p.IsEmailVerified != nil {
		merged.IsEmailVerified = *p.IsEmailVerified
	}
	if p.LastLoginAt != nil {
		t := *p.LastLoginAt
		merged.LastLoginAt = &t
	}
	return merged
}

// State is the full auth store state. User and Session are always both set or both nil.
type State struct {
	User          *AuthUser
	Session       *AuthSession
	IsLoading     bool
	IsInitialized bool
	Error         string
	RememberMe    bool
}

// IsAuthenticated reports whether both a user and a session are present.
func (s State) IsAuthenticated() bool {
	return s.User != nil && s.Session != nil
}

// Clone returns a copy of the state that shares nothing mutable with s.
func (s State) Clone() State {
	c := s
	c.User = s.User.Clone()
	if s.Session != nil {
		sess := *s.Session
		c.Session = &sess
	}
	return c
}
