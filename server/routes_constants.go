package server

// Route path constants
const (
	// Auth
	RouteLogin        = "/login"
	RouteLogout       = "/logout"
	RouteSignup       = "/signup"
	RouteOAuthStart   = "/auth/oauth/{provider}"
	RouteCallback     = "/auth/callback"
	RouteUnauthorized = "/unauthorized"

	// Pages
	RouteIndex      = "/"
	RouteLessons    = "/lessons"
	RouteModeration = "/moderation"
	RouteAdmin      = "/admin"

	// API
	RouteAPISession  = "/api/session"
	RouteAPIRefresh  = "/api/session/refresh"
	RouteAPIActivity = "/api/activity"

	// Operations
	RouteMetrics = "/metrics"
	RouteHealth  = "/healthz"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeJSON = "application/json"
)
