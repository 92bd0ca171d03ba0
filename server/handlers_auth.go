package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/lingo-session/guard"
)

// LoginPageHandler displays the login form (GET /login).
func (s *Server) LoginPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		redirect := guard.ReturnPath(r.URL.Query().Get(guard.RedirectParam), RouteLessons)
		if s.store.IsAuthenticated() {
			http.Redirect(w, r, redirect, http.StatusFound)
			return
		}
		data := s.pageData()
		data.Redirect = redirect
		if hint := s.store.RememberedUser(); hint != nil {
			data.Email = hint.Email
			data.RememberedFor = displayName(hint.FirstName, hint.Email)
		}
		s.render(w, http.StatusOK, "login.html", data)
	}
}

// LoginSubmissionHandler processes the login form (POST /login).
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		email := strings.TrimSpace(r.PostForm.Get("email"))
		password := r.PostForm.Get("password")
		rememberMe := r.PostForm.Get("remember") == "on"
		redirect := guard.ReturnPath(r.PostForm.Get("redirect"), RouteLessons)

		if email == "" || password == "" {
			data := s.pageData()
			data.Error = "Email and password are required."
			data.Email = email
			data.Redirect = redirect
			s.render(w, http.StatusBadRequest, "login.html", data)
			return
		}

		if err := s.store.SignIn(r.Context(), email, password, rememberMe); err != nil {
			s.logger.Debug().Err(err).Str("email", email).Msg("login rejected")
			data := s.pageData()
			data.Error = s.store.State().Error
			data.Email = email
			data.Redirect = redirect
			s.render(w, http.StatusUnauthorized, "login.html", data)
			return
		}
		http.Redirect(w, r, redirect, http.StatusSeeOther)
	}
}

// SignupPageHandler displays the registration form (GET /signup).
func (s *Server) SignupPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, http.StatusOK, "signup.html", s.pageData())
	}
}

// SignupSubmissionHandler registers an account (POST /signup). Extra form
// fields travel as profile metadata.
func (s *Server) SignupSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		email := strings.TrimSpace(r.PostForm.Get("email"))
		password := r.PostForm.Get("password")
		firstName := strings.TrimSpace(r.PostForm.Get("firstName"))

		metadata := map[string]any{}
		if lang := strings.TrimSpace(r.PostForm.Get("targetLanguage")); lang != "" {
			metadata["targetLanguage"] = lang
		}

		if err := s.store.SignUp(r.Context(), email, password, firstName, metadata); err != nil {
			data := s.pageData()
			data.Error = s.store.State().Error
			data.Email = email
			s.render(w, http.StatusBadRequest, "signup.html", data)
			return
		}
		if !s.store.IsAuthenticated() {
			data := s.pageData()
			data.Email = email
			data.Error = "Check your inbox to confirm your email, then sign in."
			s.render(w, http.StatusOK, "login.html", data)
			return
		}
		http.Redirect(w, r, RouteLessons, http.StatusSeeOther)
	}
}

// LogoutHandler signs out (POST /logout). Local state is cleared even when the
// backend call fails.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.store.SignOut(r.Context()); err != nil {
			s.logger.Warn().Err(err).Msg("sign out reported an error")
		}
		http.Redirect(w, r, RouteLogin, http.StatusSeeOther)
	}
}

// OAuthStartHandler redirects to the identity provider (GET /auth/oauth/{provider}).
func (s *Server) OAuthStartHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider := r.PathValue("provider")
		if !s.allowedProvider(provider) {
			http.Error(w, "Unknown sign-in provider", http.StatusNotFound)
			return
		}
		resp, err := s.store.SignInWithOAuth(r.Context(), provider)
		if err != nil {
			data := s.pageData()
			data.Error = s.store.State().Error
			s.render(w, http.StatusBadGateway, "login.html", data)
			return
		}
		http.Redirect(w, r, resp.URL, http.StatusFound)
	}
}

// OAuthCallbackHandler completes a provider sign-in. It accepts both query
// parameters and form_post responses.
func (s *Server) OAuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := r.FormValue("state")
		code := r.FormValue("code")
		if errorParam := r.FormValue("error"); errorParam != "" {
			data := s.pageData()
			data.Error = "Sign-in was cancelled or refused by the provider."
			s.logger.Info().Str("error", errorParam).Str("description", r.FormValue("error_description")).Msg("provider returned an error")
			s.render(w, http.StatusBadRequest, "login.html", data)
			return
		}
		if state == "" || code == "" {
			http.Error(w, "Missing code or state parameter", http.StatusBadRequest)
			return
		}

		if err := s.store.CompleteOAuth(r.Context(), state, code, false); err != nil {
			data := s.pageData()
			data.Error = s.store.State().Error
			s.render(w, http.StatusBadRequest, "login.html", data)
			return
		}
		http.Redirect(w, r, RouteLessons, http.StatusSeeOther)
	}
}

func (s *Server) allowedProvider(provider string) bool {
	for _, p := range s.providers {
		if p == provider {
			return true
		}
	}
	return false
}

func displayName(firstName, email string) string {
	if firstName != "" {
		return firstName
	}
	return email
}
