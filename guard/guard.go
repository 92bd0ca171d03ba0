// Package guard decides whether a page may render for the current auth state.
// Decide is pure; the router and HTTP helpers act on its result.
package guard

import (
	"net/url"

	"github.com/jrsteele09/lingo-session/users"
)

// Kind is the outcome of a guard decision.
type Kind int

const (
	Loading Kind = iota
	RedirectToLogin
	RedirectToUnauthorized
	Allow
)

func (k Kind) String() string {
	switch k {
	case Loading:
		return "loading"
	case RedirectToLogin:
		return "redirect-to-login"
	case RedirectToUnauthorized:
		return "redirect-to-unauthorized"
	case Allow:
		return "allow"
	}
	return "unknown"
}

// Default redirect targets.
const (
	LoginPath        = "/login"
	UnauthorizedPath = "/unauthorized"
	RedirectParam    = "redirect"
)

// Paths are the redirect targets used by DecideWith.
type Paths struct {
	Login        string
	Unauthorized string
}

// DefaultPaths returns LoginPath and UnauthorizedPath.
func DefaultPaths() Paths {
	return Paths{Login: LoginPath, Unauthorized: UnauthorizedPath}
}

// Input is the auth state a decision is made from. Nil checks count as failing.
type Input struct {
	IsInitialized   bool
	IsAuthenticated bool
	HasRole         func(users.RoleType) bool
	HasPermission   func(users.Permission) bool
	CurrentPath     string
}

// Requirement is what a page needs. Empty fields are not checked.
type Requirement struct {
	RequiredRole       users.RoleType
	RequiredPermission users.Permission
}

// Decision is the guard outcome. RedirectURL is set for the redirect kinds.
type Decision struct {
	Kind        Kind
	RedirectURL string
}

// Decide applies req to in using DefaultPaths.
func Decide(in Input, req Requirement) Decision {
	return DecideWith(DefaultPaths(), in, req)
}

// DecideWith applies req to in. The same inputs always give the same decision.
func DecideWith(paths Paths, in Input, req Requirement) Decision {
	if !in.IsInitialized {
		return Decision{Kind: Loading}
	}
	if !in.IsAuthenticated {
		return Decision{Kind: RedirectToLogin, RedirectURL: RedirectURL(paths.Login, in.CurrentPath)}
	}
	if req.RequiredRole != "" && (in.HasRole == nil || !in.HasRole(req.RequiredRole)) {
		return Decision{Kind: RedirectToUnauthorized, RedirectURL: RedirectURL(paths.Unauthorized, in.CurrentPath)}
	}
	if req.RequiredPermission != "" && (in.HasPermission == nil || !in.HasPermission(req.RequiredPermission)) {
		return Decision{Kind: RedirectToUnauthorized, RedirectURL: RedirectURL(paths.Unauthorized, in.CurrentPath)}
	}
	return Decision{Kind: Allow}
}

// RedirectURL builds {target}?redirect={escaped current}. An empty current
// path yields target alone.
func RedirectURL(target, current string) string {
	if current == "" {
		return target
	}
	return target + "?" + RedirectParam + "=" + url.QueryEscape(current)
}

// ReturnPath extracts a safe post-login destination from a redirect parameter.
// Only local absolute paths are accepted; anything else yields fallback.
func ReturnPath(raw, fallback string) string {
	if raw == "" || raw[0] != '/' || (len(raw) > 1 && (raw[1] == '/' || raw[1] == '\\')) {
		return fallback
	}
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() || u.Host != "" {
		return fallback
	}
	return raw
}
