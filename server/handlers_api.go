package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jrsteele09/lingo-session/users"
)

// SessionResponse is the token-free view of the auth state served to scripts.
type SessionResponse struct {
	Initialized     bool         `json:"initialized"`
	Authenticated   bool         `json:"authenticated"`
	Loading         bool         `json:"loading"`
	RememberMe      bool         `json:"rememberMe"`
	Error           string       `json:"error,omitempty"`
	User            *SessionUser `json:"user,omitempty"`
	ExpiresAt       *time.Time   `json:"expiresAt,omitempty"`
	IdleSecondsLeft int64        `json:"idleSecondsLeft,omitempty"`
	Permissions     []string     `json:"permissions,omitempty"`
}

type SessionUser struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	FirstName       string `json:"firstName,omitempty"`
	LastName        string `json:"lastName,omitempty"`
	Role            string `json:"role,omitempty"`
	IsEmailVerified bool   `json:"isEmailVerified"`
}

// SessionAPIHandler reports the current auth state (GET /api/session).
func (s *Server) SessionAPIHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.sessionResponse())
	}
}

// RefreshAPIHandler renews the session (POST /api/session/refresh). A failed
// refresh reports a signed-out state rather than an error.
func (s *Server) RefreshAPIHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.store.RefreshSession(r.Context())
		writeJSON(w, http.StatusOK, s.sessionResponse())
	}
}

// ActivityAPIHandler records client-side activity for the idle timer (POST /api/activity).
func (s *Server) ActivityAPIHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.store.RecordActivity()
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := s.store.State()
		status := http.StatusOK
		if !state.IsInitialized {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, map[string]bool{"initialized": state.IsInitialized})
	}
}

func (s *Server) sessionResponse() SessionResponse {
	state := s.store.State()
	resp := SessionResponse{
		Initialized:   state.IsInitialized,
		Authenticated: state.IsAuthenticated(),
		Loading:       state.IsLoading,
		RememberMe:    state.RememberMe,
		Error:         state.Error,
	}
	if !state.IsAuthenticated() {
		return resp
	}
	resp.User = &SessionUser{
		ID:              state.User.ID,
		Email:           state.User.Email,
		FirstName:       state.User.FirstName,
		LastName:        state.User.LastName,
		Role:            state.User.Role,
		IsEmailVerified: state.User.IsEmailVerified,
	}
	if !state.Session.ExpiresAt.IsZero() {
		expiresAt := state.Session.ExpiresAt.UTC()
		resp.ExpiresAt = &expiresAt
	}
	resp.IdleSecondsLeft = int64(s.store.TimeoutRemaining() / time.Second)
	for _, p := range users.PermissionsFor(users.RoleType(state.User.Role)) {
		resp.Permissions = append(resp.Permissions, string(p))
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
