// Package server is the lesson app's web front end. Every page is gated by the
// auth session store through the guard package.
package server

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/lingo-session/authstore"
	"github.com/jrsteele09/lingo-session/guard"
	"github.com/jrsteele09/lingo-session/internal/config"
)

type Server struct {
	env       string
	appName   string
	mux       *http.ServeMux
	routes    []string
	store     *authstore.Store
	logger    zerolog.Logger
	metrics   http.Handler
	paths     guard.Paths
	providers []string
	templates map[string]*template.Template
}

type Option func(*Server)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithOAuthProviders lists the providers offered on the login page.
func WithOAuthProviders(providers ...string) Option {
	return func(s *Server) {
		s.providers = providers
	}
}

// WithMetricsHandler serves h on RouteMetrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

func New(cfg config.EnvConfig, store *authstore.Store, options ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("[server.New] config is required")
	}
	if store == nil {
		return nil, errors.New("[server.New] auth store is required")
	}

	s := &Server{
		env:     cfg.GetEnv(),
		appName: cfg.GetAppName(),
		mux:     http.NewServeMux(),
		store:   store,
		logger:  log.Logger,
		paths:   guard.Paths{Login: RouteLogin, Unauthorized: RouteUnauthorized},
	}
	for _, opt := range options {
		opt(s)
	}

	templates, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("[server.New] failed to parse templates: %w", err)
	}
	s.templates = templates

	s.initRoutes()
	s.logRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes returns the registered route patterns in registration order.
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			s.logRoute(parts[0], parts[1])
		} else {
			s.logRoute("", parts[0])
		}
	}
}

func (s *Server) logRoute(method, path string) {
	s.logger.Debug().Msgf("[%-19s] %s", colourMethod(method), path)
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := s.templates[name]
	if !ok {
		http.Error(w, "page not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(status)
	if err := tmpl.Execute(w, data); err != nil {
		s.logger.Err(err).Str("template", name).Msg("failed to render template")
	}
}
