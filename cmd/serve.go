package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/meetgate/internal/alias"
	"github.com/teemow/meetgate/internal/google"
	"github.com/teemow/meetgate/internal/instrumentation"
	"github.com/teemow/meetgate/internal/kv"
	"github.com/teemow/meetgate/internal/meet"
	"github.com/teemow/meetgate/internal/meetings"
	"github.com/teemow/meetgate/internal/provision"
	"github.com/teemow/meetgate/internal/resolver"
	"github.com/teemow/meetgate/internal/server"
	"github.com/teemow/meetgate/internal/tokens"
)

// ServeConfig holds all settings for the serve command.
type ServeConfig struct {
	Addr         string
	BaseURL      string
	ClientID     string
	ClientSecret string
	CookieSecret string
	DefaultToken string

	Valkey kv.ValkeyConfig

	MetricsEnabled bool
	MetricsAddr    string

	Debug bool
}

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	var cfg ServeConfig

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the meetgate web server",
		Long: `Run the meetgate web server.

Serves the meeting resolver, the Google OAuth sign-in flow, and the
informational pages. Requires a Valkey server for the meeting cache,
token store, and alias index.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyServeEnv(cmd, &cfg)
			if err := validateServeConfig(&cfg); err != nil {
				return err
			}
			return runServe(cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.Addr, "addr", server.DefaultAddr, "HTTP server address. Can also use HTTP_ADDR env var.")
	cmd.Flags().StringVar(&cfg.BaseURL, "base-url", "", "Public base URL of this deployment, used for the OAuth redirect URI. Can also use BASE_URL env var. Example: https://meet.example.com")
	cmd.Flags().StringVar(&cfg.ClientID, "google-client-id", "", "Google OAuth Client ID. Can also use GOOGLE_CLIENT_ID env var.")
	cmd.Flags().StringVar(&cfg.ClientSecret, "google-client-secret", "", "Google OAuth Client Secret. Can also use GOOGLE_CLIENT_SECRET env var.")
	cmd.Flags().StringVar(&cfg.CookieSecret, "cookie-secret", "", "Secret for HMAC-signing session cookies. Can also use COOKIE_SECRET env var.")
	cmd.Flags().StringVar(&cfg.DefaultToken, "default-refresh-token", "", "Fallback Google refresh token used for signed-out visitors. Can also use GOOGLE_REFRESH_TOKEN env var.")

	cmd.Flags().StringVar(&cfg.Valkey.URL, "valkey-url", "", "Valkey server address (e.g., valkey.namespace.svc:6379). Can also use VALKEY_URL env var.")
	cmd.Flags().StringVar(&cfg.Valkey.Password, "valkey-password", "", "Valkey authentication password. Can also use VALKEY_PASSWORD env var.")
	cmd.Flags().BoolVar(&cfg.Valkey.TLSEnabled, "valkey-tls", false, "Enable TLS for Valkey connections. Can also use VALKEY_TLS_ENABLED env var.")
	cmd.Flags().StringVar(&cfg.Valkey.TLSCAFile, "valkey-ca-file", "", "Path to a custom CA certificate for Valkey TLS. Can also use VALKEY_CA_FILE env var.")
	cmd.Flags().IntVar(&cfg.Valkey.DB, "valkey-db", 0, "Valkey database number. Can also use VALKEY_DB env var.")

	cmd.Flags().BoolVar(&cfg.MetricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&cfg.MetricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	cmd.Flags().BoolVar(&cfg.Debug, "debug", false, "Enable debug logging")

	return cmd
}

// applyServeEnv fills settings from environment variables where the
// corresponding flag was not set explicitly.
func applyServeEnv(cmd *cobra.Command, cfg *ServeConfig) {
	env := func(flag, key string, apply func(string)) {
		if !cmd.Flags().Changed(flag) {
			if v := os.Getenv(key); v != "" {
				apply(v)
			}
		}
	}

	env("addr", "HTTP_ADDR", func(v string) { cfg.Addr = v })
	env("base-url", "BASE_URL", func(v string) { cfg.BaseURL = v })
	env("google-client-id", "GOOGLE_CLIENT_ID", func(v string) { cfg.ClientID = v })
	env("google-client-secret", "GOOGLE_CLIENT_SECRET", func(v string) { cfg.ClientSecret = v })
	env("cookie-secret", "COOKIE_SECRET", func(v string) { cfg.CookieSecret = v })
	env("default-refresh-token", "GOOGLE_REFRESH_TOKEN", func(v string) { cfg.DefaultToken = v })
	env("valkey-url", "VALKEY_URL", func(v string) { cfg.Valkey.URL = v })
	env("valkey-password", "VALKEY_PASSWORD", func(v string) { cfg.Valkey.Password = v })
	env("valkey-tls", "VALKEY_TLS_ENABLED", func(v string) { cfg.Valkey.TLSEnabled = v == "true" })
	env("valkey-ca-file", "VALKEY_CA_FILE", func(v string) { cfg.Valkey.TLSCAFile = v })
	env("valkey-db", "VALKEY_DB", func(v string) {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Valkey.DB = db
		}
	})
	env("metrics-enabled", "METRICS_ENABLED", func(v string) { cfg.MetricsEnabled = v != "false" })
	env("metrics-addr", "METRICS_ADDR", func(v string) { cfg.MetricsAddr = v })
}

func validateServeConfig(cfg *ServeConfig) error {
	var missing []string
	if cfg.BaseURL == "" {
		missing = append(missing, "--base-url (or BASE_URL)")
	}
	if cfg.ClientID == "" {
		missing = append(missing, "--google-client-id (or GOOGLE_CLIENT_ID)")
	}
	if cfg.ClientSecret == "" {
		missing = append(missing, "--google-client-secret (or GOOGLE_CLIENT_SECRET)")
	}
	if cfg.CookieSecret == "" {
		missing = append(missing, "--cookie-secret (or COOKIE_SECRET)")
	}
	if cfg.Valkey.URL == "" {
		missing = append(missing, "--valkey-url (or VALKEY_URL)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func runServe(cfg ServeConfig) error {
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Error("error during instrumentation shutdown", "error", err)
		}
	}()

	var metricsServer *server.MetricsServer
	if cfg.MetricsEnabled && provider.Enabled() {
		metricsServer, err = server.NewMetricsServer(cfg.MetricsAddr, provider)
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	store, err := kv.NewValkeyStore(cfg.Valkey)
	if err != nil {
		return fmt.Errorf("failed to connect to valkey: %w", err)
	}
	defer store.Close()

	cache := meetings.NewCache(store, logger)
	tokenStore := tokens.NewStore(store, logger)
	aliases := alias.NewIndex(store, logger)

	oauthClient := google.NewClient(google.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  strings.TrimSuffix(cfg.BaseURL, "/") + "/callback",
	}, logger, provider.Metrics())
	spaces := meet.NewClient(logger, provider.Metrics())

	provisioner := provision.NewProvisioner(oauthClient, spaces, cache, tokenStore, logger, provider.Metrics())
	res := resolver.New(cache, tokenStore, aliases, provisioner, cfg.DefaultToken, logger, provider.Metrics())
	audit := instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging)

	srv := server.New(
		server.Config{
			Addr:         cfg.Addr,
			CookieSecret: cfg.CookieSecret,
			DefaultToken: cfg.DefaultToken,
		},
		server.Deps{
			Resolver: res,
			OAuth:    oauthClient,
			Spaces:   spaces,
			Tokens:   tokenStore,
			Aliases:  aliases,
			Logger:   logger,
			Metrics:  provider.Metrics(),
			Audit:    audit,
		},
	)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-shutdownCtx.Done():
	}

	logger.Info("shutdown signal received")
	ctx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("error during server shutdown", "error", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			logger.Error("error during metrics server shutdown", "error", err)
		}
	}
	return nil
}
