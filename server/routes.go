package server

import (
	"net/http"

	"github.com/jrsteele09/lingo-session/guard"
	"github.com/jrsteele09/lingo-session/users"
)

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET "+RouteIndex+"{$}", ChainMiddleware(s.IndexHandler(), s.HTMLMiddleware()...))

	// Auth
	s.RegisterRouteHandler("GET "+RouteLogin, ChainMiddleware(s.LoginPageHandler(), s.HTMLMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteLogin, ChainMiddleware(s.LoginSubmissionHandler(), s.HTMLMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteSignup, ChainMiddleware(s.SignupPageHandler(), s.HTMLMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteSignup, ChainMiddleware(s.SignupSubmissionHandler(), s.HTMLMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteOAuthStart, ChainMiddleware(s.OAuthStartHandler(), s.HTMLMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteCallback, ChainMiddleware(s.OAuthCallbackHandler(), s.HTMLMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteCallback, ChainMiddleware(s.OAuthCallbackHandler(), s.HTMLMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteUnauthorized, ChainMiddleware(s.UnauthorizedHandler(), s.HTMLMiddleware()...))

	// Guarded pages
	s.RegisterRouteHandler("GET "+RouteLessons, s.guarded(s.LessonsHandler(), guard.Requirement{RequiredPermission: users.PermLessonsRead}))
	s.RegisterRouteHandler("GET "+RouteModeration, s.guarded(s.ModerationHandler(), guard.Requirement{RequiredPermission: users.PermContentModerate}))
	s.RegisterRouteHandler("GET "+RouteAdmin, s.guarded(s.AdminHandler(), guard.Requirement{RequiredRole: users.RoleAdmin}))

	// API
	s.RegisterRouteHandler("GET "+RouteAPISession, ChainMiddleware(s.SessionAPIHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAPIRefresh, ChainMiddleware(s.RefreshAPIHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAPIActivity, ChainMiddleware(s.ActivityAPIHandler(), s.APIMiddleware()...))

	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
	if s.metrics != nil {
		s.RegisterRouteHandler("GET "+RouteMetrics, s.metrics)
	}
}

// guarded wraps a page in the HTML middleware plus the auth guard.
func (s *Server) guarded(h http.HandlerFunc, req guard.Requirement) http.HandlerFunc {
	check := guard.Middleware(s.store, req, s.paths)
	return ChainMiddleware(h, s.HTMLMiddleware(func(next http.HandlerFunc) http.HandlerFunc {
		return check(next).ServeHTTP
	})...)
}
