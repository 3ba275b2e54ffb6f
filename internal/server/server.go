package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/teemow/meetgate/internal/alias"
	"github.com/teemow/meetgate/internal/google"
	"github.com/teemow/meetgate/internal/instrumentation"
	"github.com/teemow/meetgate/internal/provision"
	"github.com/teemow/meetgate/internal/resolver"
	"github.com/teemow/meetgate/internal/tokens"
)

const (
	// DefaultAddr is the default address for the application server.
	DefaultAddr = ":8080"

	// DefaultReadHeaderTimeout bounds how long a client may take to
	// send request headers.
	DefaultReadHeaderTimeout = 10 * time.Second

	// DefaultWriteTimeout bounds a single response, including the
	// upstream provisioning calls a request may trigger.
	DefaultWriteTimeout = 60 * time.Second

	// DefaultIdleTimeout is how long keep-alive connections are held.
	DefaultIdleTimeout = 120 * time.Second
)

// OAuthClient is the part of the Google OAuth client the HTTP handlers
// need. It is satisfied by google.Client.
type OAuthClient interface {
	AuthCodeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (google.LoginResult, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (google.RefreshResult, error)
}

// Config holds the application server configuration.
type Config struct {
	// Addr is the address to bind to (e.g. ":8080").
	Addr string

	// CookieSecret signs the session and state cookies.
	CookieSecret string

	// DefaultToken is the fallback refresh token used for /new when
	// the visitor is signed out. It may be empty.
	DefaultToken string
}

// Deps are the collaborators the handlers dispatch to.
type Deps struct {
	Resolver *resolver.Resolver
	OAuth    OAuthClient
	Spaces   provision.SpaceCreator
	Tokens   *tokens.Store
	Aliases  *alias.Index
	Logger   *slog.Logger
	Metrics  *instrumentation.Metrics
	Audit    *instrumentation.AuditLogger
}

// Server is the user-facing HTTP server: the meeting resolver, the
// OAuth sign-in flow, the profile page, and the informational pages.
type Server struct {
	cfg      Config
	resolver *resolver.Resolver
	oauth    OAuthClient
	spaces   provision.SpaceCreator
	tokens   *tokens.Store
	aliases  *alias.Index
	logger   *slog.Logger
	metrics  *instrumentation.Metrics
	audit    *instrumentation.AuditLogger
	health   *HealthChecker

	httpServer   *http.Server
	shuttingDown atomic.Bool
}

// New creates the application server. The health checker reports not
// ready once Shutdown has begun.
func New(cfg Config, deps Deps) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:      cfg,
		resolver: deps.Resolver,
		oauth:    deps.OAuth,
		spaces:   deps.Spaces,
		tokens:   deps.Tokens,
		aliases:  deps.Aliases,
		logger:   logger,
		metrics:  deps.Metrics,
		audit:    deps.Audit,
	}
	s.health = NewHealthChecker(s.shuttingDown.Load)
	return s
}

// Health returns the server's health checker so callers can flip
// readiness during startup.
func (s *Server) Health() *HealthChecker {
	return s.health
}

// Handler builds the full route table wrapped in the observability
// middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /new", s.handleNew)
	mux.HandleFunc("GET /me", s.handleMe)
	mux.HandleFunc("GET /login", s.handleLogin)
	mux.HandleFunc("GET /callback", s.handleCallback)
	mux.HandleFunc("GET /logout", s.handleLogout)

	mux.HandleFunc("GET /home", func(w http.ResponseWriter, _ *http.Request) {
		s.renderPage(w, "home", homeContent)
	})
	mux.HandleFunc("GET /tnc", func(w http.ResponseWriter, _ *http.Request) {
		s.renderPage(w, "Terms and Conditions", tncContent)
	})
	mux.HandleFunc("GET /privacy-policy", func(w http.ResponseWriter, _ *http.Request) {
		s.renderPage(w, "Privacy Policy", privacyContent)
	})

	s.health.RegisterHealthEndpoints(mux)

	return s.withObservability(mux)
}

// Start runs the server until it fails or Shutdown is called. It
// blocks; run it in a goroutine for non-blocking operation.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		WriteTimeout:      DefaultWriteTimeout,
		IdleTimeout:       DefaultIdleTimeout,
	}

	s.logger.Info("starting server", slog.String("addr", s.cfg.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown marks the server as draining and gracefully stops it.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shuttingDown.Store(true)
	s.health.SetReady(false)

	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("shutting down server")
	return s.httpServer.Shutdown(ctx)
}
