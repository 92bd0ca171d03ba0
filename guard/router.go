package guard

import (
	"net/http"

	"github.com/jrsteele09/lingo-session/sessions"
	"github.com/jrsteele09/lingo-session/users"
)

// Router navigates to a URL.
type Router interface {
	Push(url string)
}

// Apply pushes the redirect for d, if any, and reports whether the page may render.
func Apply(r Router, d Decision) bool {
	switch d.Kind {
	case RedirectToLogin, RedirectToUnauthorized:
		r.Push(d.RedirectURL)
	}
	return d.Kind == Allow
}

// AuthState is the view of the session store the guard reads.
type AuthState interface {
	State() sessions.State
	HasRole(role users.RoleType) bool
	HasPermission(permission users.Permission) bool
}

// InputFrom snapshots auth for a decision about currentPath.
func InputFrom(auth AuthState, currentPath string) Input {
	state := auth.State()
	return Input{
		IsInitialized:   state.IsInitialized,
		IsAuthenticated: state.IsAuthenticated(),
		HasRole:         auth.HasRole,
		HasPermission:   auth.HasPermission,
		CurrentPath:     currentPath,
	}
}

// httpRouter redirects an HTTP response.
type httpRouter struct {
	w http.ResponseWriter
	r *http.Request
}

func (h httpRouter) Push(url string) {
	http.Redirect(h.w, h.r, url, http.StatusFound)
}

// Middleware guards an HTTP handler. A store that is still initializing
// answers 503 with Retry-After.
func Middleware(auth AuthState, req Requirement, paths Paths) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := DecideWith(paths, InputFrom(auth, r.URL.RequestURI()), req)
			if decision.Kind == Loading {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "session is initializing", http.StatusServiceUnavailable)
				return
			}
			if Apply(httpRouter{w: w, r: r}, decision) {
				next.ServeHTTP(w, r)
			}
		})
	}
}
