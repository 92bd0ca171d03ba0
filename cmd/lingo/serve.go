package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jrsteele09/lingo-session/authstore"
	"github.com/jrsteele09/lingo-session/backend/httpbackend"
	"github.com/jrsteele09/lingo-session/internal/config"
	"github.com/jrsteele09/lingo-session/internal/logging"
	"github.com/jrsteele09/lingo-session/internal/metrics"
	"github.com/jrsteele09/lingo-session/profile"
	"github.com/jrsteele09/lingo-session/server"
)

const (
	shutdownTimeout = 5 * time.Second
	refreshInterval = 15 * time.Second
)

type serveConfig struct {
	addr      string
	providers []string
	banner    bool
}

func newServeCmd() *cobra.Command {
	cfg := &serveConfig{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the lesson web front end",
		Long: `Run the lesson web front end. Sign-in state is held by the auth
session store and only a remembered identity is written to disk.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, config.New())
		},
	}

	cmd.Flags().StringVar(&cfg.addr, "addr", "", "listen address (defaults to PORT)")
	cmd.Flags().StringSliceVar(&cfg.providers, "provider", []string{"google"}, "OAuth providers offered on the login page")
	cmd.Flags().BoolVar(&cfg.banner, "banner", true, "print the start-up banner")

	return cmd
}

func runServe(ctx context.Context, cfg *serveConfig, c config.Config) error {
	if cfg.banner {
		displayAppname(c.GetAppName())
	}
	logger := logging.New(c.GetAppName(), c.GetEnv(), c.GetLogLevel(), nil)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	sessionMetrics := metrics.New(registry)

	secure, err := openSecureStore(c, logger)
	if err != nil {
		return fmt.Errorf("opening session store: %w", err)
	}
	defer func() {
		if err := secure.Close(); err != nil {
			logger.Warn().Err(err).Msg("closing session store")
		}
	}()

	httpClient := &http.Client{Timeout: c.GetHTTPTimeout()}
	backendClient, err := newBackendClient(ctx, c, httpClient, logger)
	if err != nil {
		return err
	}

	store, err := authstore.New(backendClient,
		authstore.WithProfileFetcher(profile.New(c.GetBaseURL(),
			profile.WithHTTPClient(httpClient),
			profile.WithPath(c.GetProfilePath()))),
		authstore.WithPersister(secure.records),
		authstore.WithLogger(logger),
		authstore.WithMetrics(sessionMetrics),
		authstore.WithIdleTimeout(c.GetIdleTimeout(), c.GetIdleWarning()),
		authstore.WithTimeoutWarning(func(remaining time.Duration) {
			logger.Warn().Dur("remaining", remaining).Msg("session will time out soon")
		}),
	)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Initialize(ctx); err != nil {
		logger.Warn().Err(err).Msg("could not restore session, starting signed out")
	}
	go store.KeepFresh(ctx, c.GetRefreshMargin(), refreshInterval)

	handler, err := server.New(c, store,
		server.WithLogger(logger),
		server.WithMetricsHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})),
		server.WithOAuthProviders(cfg.providers...),
	)
	if err != nil {
		return err
	}

	addr := cfg.addr
	if addr == "" {
		addr = c.GetPort()
	}
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- listenAndServe(srv, logger)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	return shutdown(srv)
}

// newBackendClient builds the HTTP auth backend. ID token verification is
// enabled when the issuer's discovery document can be fetched.
func newBackendClient(ctx context.Context, c config.BackendConfig, httpClient *http.Client, logger zerolog.Logger) (*httpbackend.Client, error) {
	options := []httpbackend.Option{
		httpbackend.WithHTTPClient(httpClient),
		httpbackend.WithLogger(logger),
	}

	// The key set keeps using this context for later fetches, so it must outlive discovery.
	verifier, err := httpbackend.DiscoverVerifier(oidc.ClientContext(ctx, httpClient), c.GetIssuer(), c.GetClientID())
	if err != nil {
		logger.Warn().Err(err).Str("issuer", c.GetIssuer()).Msg("OIDC discovery failed, provider sign-in disabled")
	} else {
		options = append(options, httpbackend.WithIDTokenVerifier(verifier))
	}

	return httpbackend.New(httpbackend.Config{
		BaseURL:      c.GetBaseURL(),
		ClientID:     c.GetClientID(),
		ClientSecret: c.GetClientSecret(),
		AuthURL:      c.GetAuthURL(),
		TokenURL:     c.GetTokenURL(),
		RedirectURL:  c.GetRedirectURL(),
	}, options...)
}

func listenAndServe(server *http.Server, logger zerolog.Logger) error {
	logger.Info().Str("addr", server.Addr).Msg("server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
